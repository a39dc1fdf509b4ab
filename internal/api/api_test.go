package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/docs"
	"github.com/starford/ansuz/internal/images"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/provider"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// scriptedGen replays canned responses in call order.
type scriptedGen struct {
	responses []string
	calls     int
}

func (g *scriptedGen) Generate(context.Context, provider.Request) (string, error) {
	if g.calls >= len(g.responses) {
		return "", errors.New("scriptedGen: out of responses")
	}
	r := g.responses[g.calls]
	g.calls++
	return r, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string) ([]provider.Image, error) {
	return []provider.Image{{URL: "https://img.test/a", Description: "a", Attribution: "Photo by A on Unsplash"}}, nil
}

// testEnv sets up a temp store, docs dir, orchestrator, and router.
// authToken="" means auth disabled.
func testEnv(t *testing.T, gen *scriptedGen, authToken string) (store.ProjectStore, http.Handler) {
	t.Helper()

	db := testutil.TestStore(t)
	dir := testutil.TestDocs(t, map[string]string{"guide.md": "Write well."})

	orch := pipeline.New(pipeline.Deps{
		Store:           db,
		Text:            gen,
		Images:          images.NewReplacer(stubSearcher{}, 0),
		Docs:            docs.NewCache(dir, []string{"guide.md"}),
		Planner:         pipeline.ModelProfile{Model: "test-planner"},
		Research:        pipeline.ModelProfile{Model: "test-research"},
		Writer:          pipeline.ModelProfile{Model: "test-writer"},
		DefaultLanguage: "English",
	})

	router := NewRouter(orch, db, authToken != "", authToken, nil)
	return db, router
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) (envelope, json.RawMessage) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body.String())
	}
	return envelope{Success: env.Success, Message: env.Message, Error: env.Error}, env.Data
}

func createProject(t *testing.T, router http.Handler, payload map[string]string) models.Project {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/projects", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	_, data := decodeEnvelope(t, w.Body)
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCreateProject(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")

	p := createProject(t, router, map[string]string{
		"brand_name":   "Acme",
		"main_keyword": "widget automation",
		"lsi_keywords": "widgets, tooling",
	})
	if p.ID == "" {
		t.Fatal("no id assigned")
	}
	if p.Status != models.StatusCreated {
		t.Errorf("status = %q", p.Status)
	}
	if p.OutputLanguage != "English" {
		t.Errorf("output language = %q, want default applied", p.OutputLanguage)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")

	cases := []string{
		`{"brand_name": "Acme"}`,
		`{"main_keyword": "kw"}`,
		`{}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		env, _ := decodeEnvelope(t, w.Body)
		if env.Success {
			t.Errorf("body %q: success should be false", body)
		}
	}
}

func TestGetProject(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	p := createProject(t, router, map[string]string{"brand_name": "Acme", "main_keyword": "kw"})

	req := httptest.NewRequest(http.MethodGet, "/projects/"+p.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	_, data := decodeEnvelope(t, w.Body)
	var got models.Project
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || got.BrandName != "Acme" {
		t.Errorf("got %+v", got)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	req := httptest.NewRequest(http.MethodGet, "/projects/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListProjects(t *testing.T) {
	db, router := testEnv(t, &scriptedGen{}, "")

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		p := createProject(t, router, map[string]string{
			"brand_name":   fmt.Sprintf("Brand %d", i),
			"main_keyword": "kw",
		})
		ids = append(ids, p.ID)
	}
	st := models.StatusFailed
	if err := db.Update(context.Background(), ids[0], store.Update{Status: &st}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/projects?page=1&limit=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	_, data := decodeEnvelope(t, w.Body)
	var list ProjectListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 5 || list.TotalPages != 2 || len(list.Projects) != 3 {
		t.Errorf("list = total %d pages %d rows %d", list.Total, list.TotalPages, len(list.Projects))
	}

	// Status filter.
	req = httptest.NewRequest(http.MethodGet, "/projects?status=failed", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_, data = decodeEnvelope(t, w.Body)
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || len(list.Projects) != 1 || list.Projects[0].Status != models.StatusFailed {
		t.Errorf("filtered list = %+v", list)
	}
}

func TestListProjectsUnknownStatus(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	req := httptest.NewRequest(http.MethodGet, "/projects?status=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListProjectsEmpty(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	_, data := decodeEnvelope(t, w.Body)
	var list ProjectListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Projects == nil {
		t.Error("projects should be an empty array, not null")
	}
}

func TestDeleteProject(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	p := createProject(t, router, map[string]string{"brand_name": "Acme", "main_keyword": "kw"})

	req := httptest.NewRequest(http.MethodDelete, "/projects/"+p.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/projects/"+p.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestRunWorkflowNotFound(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	req := httptest.NewRequest(http.MethodPost, "/projects/does-not-exist/run-workflow", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGenerateContentWithoutOutline(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "")
	p := createProject(t, router, map[string]string{"brand_name": "Acme", "main_keyword": "kw"})

	req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/generate-content", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 before planning ran", w.Code)
	}
}

func TestFullPipelineOverHTTP(t *testing.T) {
	gen := &scriptedGen{responses: []string{
		"informational intent",
		"Title: The Widget Guide\nMeta: All about widgets.",
		"competitor landscape",
		"# Draft\n## A\n## B\n## C",
		"# Advanced Outline\n## A\n## B\n## C",
		"article body\n\nIMAGE_PLACEHOLDER: \"widget line\"\n",
	}}
	_, router := testEnv(t, gen, "")
	p := createProject(t, router, map[string]string{"brand_name": "Acme", "main_keyword": "widget automation"})

	req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/run-workflow", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("run-workflow status = %d, body = %s", w.Code, w.Body.String())
	}
	_, data := decodeEnvelope(t, w.Body)
	var planning pipeline.PlanningResult
	if err := json.Unmarshal(data, &planning); err != nil {
		t.Fatal(err)
	}
	if planning.Status != models.StatusOutlineCompleted {
		t.Errorf("planning status = %q", planning.Status)
	}
	if planning.Quality.Score <= 0 {
		t.Errorf("quality score = %v, want > 0", planning.Quality.Score)
	}

	req = httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/generate-content", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("generate-content status = %d, body = %s", w.Code, w.Body.String())
	}
	_, data = decodeEnvelope(t, w.Body)
	var content pipeline.ContentResult
	if err := json.Unmarshal(data, &content); err != nil {
		t.Fatal(err)
	}
	if content.Status != models.StatusContentGenerated {
		t.Errorf("content status = %q", content.Status)
	}
	if strings.Contains(content.Content, "IMAGE_PLACEHOLDER") {
		t.Errorf("placeholder left in content: %s", content.Content)
	}
	if content.Title != "The Widget Guide" {
		t.Errorf("title = %q", content.Title)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, &scriptedGen{}, "secret-token")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}
