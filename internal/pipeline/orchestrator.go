// Package pipeline coordinates the staged content-generation workflow:
// search intent, competitor analysis, outline refinement, quality scoring,
// and full content generation with image resolution.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/docs"
	"github.com/starford/ansuz/internal/images"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/outline"
	"github.com/starford/ansuz/internal/provider"
	"github.com/starford/ansuz/internal/store"
)

// ModelProfile is one named generation budget: which model to call and with
// what temperature, token, and deadline limits.
type ModelProfile struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// StatusPublisher receives project status transitions as they are persisted.
type StatusPublisher interface {
	PublishStatus(projectID string, status models.Status)
}

// Deps wires the orchestrator's collaborators. All are constructed once at
// process start and shared.
type Deps struct {
	Store  store.ProjectStore
	Text   provider.TextGenerator
	Images *images.Replacer
	Docs   *docs.Cache
	Events StatusPublisher // optional

	Planner  ModelProfile
	Research ModelProfile
	Writer   ModelProfile

	DefaultLanguage string
	ResearchEnabled bool
}

// Orchestrator runs the pipeline stages for a project, one run at a time
// per project id.
type Orchestrator struct {
	deps Deps

	mu      sync.Mutex
	running map[string]struct{}
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:    deps,
		running: make(map[string]struct{}),
	}
}

// TitleMeta is the best-effort title/meta stage result. A failure of this
// stage never aborts the workflow; it is recorded as a skip instead.
type TitleMeta struct {
	Title           string `json:"title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	Skipped         bool   `json:"skipped,omitempty"`
	SkipReason      string `json:"skip_reason,omitempty"`
}

// PlanningResult is the response of the planning workflow.
type PlanningResult struct {
	ProjectID          string         `json:"project_id"`
	TitleMeta          TitleMeta      `json:"title_meta"`
	SearchIntent       string         `json:"search_intent"`
	CompetitorAnalysis string         `json:"competitor_analysis"`
	Outline            string         `json:"outline"`
	Quality            outline.Report `json:"quality"`
	Status             models.Status  `json:"status"`
}

// ContentResult is the response of full content generation.
type ContentResult struct {
	ProjectID       string        `json:"project_id"`
	Title           string        `json:"title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	Outline         string        `json:"outline"`
	Content         string        `json:"content"`
	Status          models.Status `json:"status"`
}

// CreateProject validates input, applies the default output language, and
// persists a new project in the created state.
func (o *Orchestrator) CreateProject(ctx context.Context, p *models.Project) error {
	if strings.TrimSpace(p.BrandName) == "" || strings.TrimSpace(p.MainKeyword) == "" {
		return fmt.Errorf("%w: brand_name and main_keyword are required", apperr.ErrValidation)
	}
	if p.OutputLanguage == "" {
		p.OutputLanguage = o.deps.DefaultLanguage
	}
	p.Status = models.StatusCreated
	return o.deps.Store.Create(ctx, p)
}

// RunPlanningWorkflow executes stages 1-4 for the project: search intent,
// best-effort title/meta, competitor analysis, and outline generation with
// advanced refinement. Each stage's output is persisted immediately on
// success, so a later failure never discards earlier results.
func (o *Orchestrator) RunPlanningWorkflow(ctx context.Context, projectID string) (*PlanningResult, error) {
	p, err := o.deps.Store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	release, err := o.acquire(projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := slog.With(slog.String("project_id", projectID))
	log.Info("planning workflow started", slog.String("keyword", p.MainKeyword))

	lsi := models.SplitKeywords(p.LSIKeywords)

	if err := o.setStatus(ctx, projectID, models.StatusProcessing); err != nil {
		return nil, err
	}

	// Stage 1: search intent.
	system, user := searchIntentPrompts(p.MainKeyword, lsi, p.OutputLanguage)
	searchIntent, err := o.generate(ctx, o.deps.Planner, system, user)
	if err != nil {
		return nil, o.fail(ctx, projectID, log, "search intent", err)
	}
	st := models.StatusSearchIntentCompleted
	if err := o.deps.Store.Update(ctx, projectID, store.Update{
		SearchIntent: &searchIntent,
		Status:       &st,
	}); err != nil {
		return nil, o.fail(ctx, projectID, log, "persist search intent", err)
	}
	o.publish(projectID, st)
	log.Info("stage completed", slog.String("stage", "search_intent"))

	// Title/meta is the only stage allowed to fail without aborting the run.
	titleMeta := o.generateTitleMeta(ctx, projectID, p, lsi, searchIntent, log)

	// Stage 2: competitor analysis.
	system, user = competitorPrompts(p.MainKeyword, lsi, p.OutputLanguage, searchIntent)
	competitors, err := o.generate(ctx, o.deps.Planner, system, user)
	if err != nil {
		return nil, o.fail(ctx, projectID, log, "competitor analysis", err)
	}
	st = models.StatusCompetitorAnalysisCompleted
	if err := o.deps.Store.Update(ctx, projectID, store.Update{
		CompetitorAnalysis: &competitors,
		Status:             &st,
	}); err != nil {
		return nil, o.fail(ctx, projectID, log, "persist competitor analysis", err)
	}
	o.publish(projectID, st)
	log.Info("stage completed", slog.String("stage", "competitor_analysis"))

	// Stage 3: draft outline.
	system, user = draftOutlinePrompts(searchIntent, competitors, p.OutputLanguage)
	draft, err := o.generate(ctx, o.deps.Planner, system, user)
	if err != nil {
		return nil, o.fail(ctx, projectID, log, "draft outline", err)
	}

	// Stage 4: advanced outline refinement.
	advanced, err := o.refineOutline(ctx, p, lsi, searchIntent, draft)
	if err != nil {
		return nil, o.fail(ctx, projectID, log, "advanced outline", err)
	}
	st = models.StatusOutlineCompleted
	if err := o.deps.Store.Update(ctx, projectID, store.Update{
		DraftOutline: &draft,
		Outline:      &advanced,
		Status:       &st,
	}); err != nil {
		return nil, o.fail(ctx, projectID, log, "persist outline", err)
	}
	o.publish(projectID, st)
	log.Info("stage completed", slog.String("stage", "outline"))

	// Quality scoring annotates the response; a low score never fails the run.
	quality := outline.Score(advanced)
	log.Info("outline scored", slog.Float64("score", quality.Score))

	return &PlanningResult{
		ProjectID:          projectID,
		TitleMeta:          titleMeta,
		SearchIntent:       searchIntent,
		CompetitorAnalysis: competitors,
		Outline:            advanced,
		Quality:            quality,
		Status:             st,
	}, nil
}

// GenerateFullContent runs stage 5: content generation plus image placeholder
// substitution. The outline is refined once more only when no optimized
// outline is cached. On success the optimized outline and final content are
// persisted together; on failure nothing is.
func (o *Orchestrator) GenerateFullContent(ctx context.Context, projectID string) (*ContentResult, error) {
	p, err := o.deps.Store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Outline == "" && p.DraftOutline == "" {
		return nil, fmt.Errorf("%w: project has no outline; run the planning workflow first", apperr.ErrInvalidState)
	}

	release, err := o.acquire(projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := slog.With(slog.String("project_id", projectID))
	log.Info("content generation started")

	lsi := models.SplitKeywords(p.LSIKeywords)

	if err := o.setStatus(ctx, projectID, models.StatusGeneratingContent); err != nil {
		return nil, err
	}

	optimized := p.Outline
	if optimized == "" {
		optimized, err = o.refineOutline(ctx, p, lsi, p.SearchIntent, p.DraftOutline)
		if err != nil {
			return nil, o.fail(ctx, projectID, log, "outline optimization", err)
		}
	}

	system, user := contentPrompts(contentInput{
		BrandName:      p.BrandName,
		MainKeyword:    p.MainKeyword,
		LSIKeywords:    lsi,
		OutputLanguage: p.OutputLanguage,
		SearchIntent:   p.SearchIntent,
		Outline:        optimized,
	})
	raw, err := o.generate(ctx, o.deps.Writer, system, user)
	if err != nil {
		return nil, o.fail(ctx, projectID, log, "content generation", err)
	}

	// Image substitution is best-effort and never escalates to the caller.
	final := o.deps.Images.Replace(ctx, raw)

	st := models.StatusContentGenerated
	if err := o.deps.Store.Update(ctx, projectID, store.Update{
		Outline: &optimized,
		Content: &final,
		Status:  &st,
	}); err != nil {
		return nil, o.fail(ctx, projectID, log, "persist content", err)
	}
	o.publish(projectID, st)
	log.Info("content generated", slog.Int("length", len(final)))

	return &ContentResult{
		ProjectID:       projectID,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		Outline:         optimized,
		Content:         final,
		Status:          st,
	}, nil
}

// generateTitleMeta runs the best-effort title/meta stage. Results are
// persisted when available; failures are returned as an explicit skip.
func (o *Orchestrator) generateTitleMeta(ctx context.Context, projectID string, p *models.Project, lsi []string, searchIntent string, log *slog.Logger) TitleMeta {
	system, user := titleMetaPrompts(p.MainKeyword, lsi, searchIntent, p.OutputLanguage)
	text, err := o.generate(ctx, o.deps.Planner, system, user)
	if err != nil {
		log.Warn("title/meta generation skipped", slog.String("error", err.Error()))
		return TitleMeta{Skipped: true, SkipReason: err.Error()}
	}

	title, meta, ok := parseTitleMeta(text)
	if !ok {
		log.Warn("title/meta generation skipped", slog.String("error", "unparseable response"))
		return TitleMeta{Skipped: true, SkipReason: "unparseable response"}
	}

	if err := o.deps.Store.Update(ctx, projectID, store.Update{
		Title:           &title,
		MetaDescription: &meta,
	}); err != nil {
		log.Warn("title/meta persist skipped", slog.String("error", err.Error()))
		return TitleMeta{Skipped: true, SkipReason: err.Error()}
	}
	return TitleMeta{Title: title, MetaDescription: meta}
}

// refineOutline runs the advanced-outline refinement: guideline context from
// the document cache, optional supplementary research, and one generation
// call over the cleaned draft.
func (o *Orchestrator) refineOutline(ctx context.Context, p *models.Project, lsi []string, searchIntent, draft string) (string, error) {
	guidelines, err := o.deps.Docs.GetAllGuidelines()
	if err != nil {
		return "", err
	}

	research := ""
	if o.deps.ResearchEnabled {
		research, err = o.generate(ctx, o.deps.Research,
			researchSystemPrompt(), researchQuery(p.MainKeyword, p.OutputLanguage))
		if err != nil {
			return "", err
		}
	}

	system, user := advancedOutlinePrompts(advancedOutlineInput{
		BrandName:      p.BrandName,
		MainKeyword:    p.MainKeyword,
		LSIKeywords:    lsi,
		OutputLanguage: p.OutputLanguage,
		SearchIntent:   cleanMarkdown(searchIntent),
		DraftOutline:   cleanMarkdown(draft),
		Guidelines:     guidelines,
		Research:       research,
	})
	return o.generate(ctx, o.deps.Planner, system, user)
}

func (o *Orchestrator) generate(ctx context.Context, profile ModelProfile, system, user string) (string, error) {
	return o.deps.Text.Generate(ctx, provider.Request{
		Model: profile.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: system},
			{Role: provider.RoleUser, Content: user},
		},
		Temperature: profile.Temperature,
		MaxTokens:   profile.MaxTokens,
		Timeout:     profile.Timeout,
	})
}

// acquire takes the per-project run guard. A second concurrent run on the
// same project is rejected rather than allowed to race.
func (o *Orchestrator) acquire(projectID string) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.running[projectID]; busy {
		return nil, fmt.Errorf("%w: a pipeline run is already in progress for this project", apperr.ErrConflict)
	}
	o.running[projectID] = struct{}{}
	return func() {
		o.mu.Lock()
		delete(o.running, projectID)
		o.mu.Unlock()
	}, nil
}

func (o *Orchestrator) setStatus(ctx context.Context, projectID string, st models.Status) error {
	if err := o.deps.Store.Update(ctx, projectID, store.Update{Status: &st}); err != nil {
		return err
	}
	o.publish(projectID, st)
	return nil
}

func (o *Orchestrator) publish(projectID string, st models.Status) {
	if o.deps.Events != nil {
		o.deps.Events.PublishStatus(projectID, st)
	}
}

// fail marks the project failed and wraps the stage error. Already-persisted
// partial results are deliberately left in place.
func (o *Orchestrator) fail(ctx context.Context, projectID string, log *slog.Logger, stage string, err error) error {
	log.Error("stage failed", slog.String("stage", stage), slog.String("error", err.Error()))
	st := models.StatusFailed
	if upErr := o.deps.Store.Update(ctx, projectID, store.Update{Status: &st}); upErr != nil {
		log.Error("failed-status update error", slog.String("error", upErr.Error()))
	} else {
		o.publish(projectID, st)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// parseTitleMeta extracts "Title:" and "Meta:" lines from the stage output.
// Markdown bold markers around the labels are tolerated.
func parseTitleMeta(text string) (title, meta string, ok bool) {
	value := func(line, label string) string {
		return strings.Trim(strings.TrimSpace(line[len(label):]), "* ")
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "title:"):
			title = value(line, "title:")
		case strings.HasPrefix(lower, "meta description:"):
			meta = value(line, "meta description:")
		case strings.HasPrefix(lower, "meta:"):
			meta = value(line, "meta:")
		}
	}
	return title, meta, title != ""
}
