package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-store-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strp(s string) *string { return &s }

func statusp(s models.Status) *models.Status { return &s }

func TestCreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := &models.Project{
		BrandName:      "Acme",
		MainKeyword:    "widget automation",
		LSIKeywords:    "widgets, automation",
		OutputLanguage: "English",
	}
	if err := db.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" {
		t.Fatal("Create did not assign an id")
	}
	if p.Status != models.StatusCreated {
		t.Errorf("Status = %q, want %q", p.Status, models.StatusCreated)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	got, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BrandName != "Acme" || got.MainKeyword != "widget automation" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.OutputLanguage != "English" {
		t.Errorf("OutputLanguage = %q", got.OutputLanguage)
	}
}

func TestGetNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), "no-such-id"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := &models.Project{BrandName: "Acme", MainKeyword: "kw"}
	if err := db.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	err := db.Update(ctx, p.ID, Update{
		Status:       statusp(models.StatusSearchIntentCompleted),
		SearchIntent: strp("informational intent"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusSearchIntentCompleted {
		t.Errorf("Status = %q", got.Status)
	}
	if got.SearchIntent != "informational intent" {
		t.Errorf("SearchIntent = %q", got.SearchIntent)
	}
	// Untouched fields keep their values.
	if got.BrandName != "Acme" || got.Outline != "" || got.Content != "" {
		t.Errorf("unrelated fields changed: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestUpdateEmptyIsNoop(t *testing.T) {
	db := testDB(t)
	if err := db.Update(context.Background(), "whatever", Update{}); err != nil {
		t.Errorf("empty update should be a no-op, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	db := testDB(t)
	err := db.Update(context.Background(), "no-such-id", Update{Title: strp("x")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListPaginationAndFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		p := &models.Project{BrandName: "Acme", MainKeyword: "kw"}
		if err := db.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}
	// Flip two projects to failed.
	for _, id := range ids[:2] {
		if err := db.Update(ctx, id, Update{Status: statusp(models.StatusFailed)}); err != nil {
			t.Fatal(err)
		}
	}

	rows, total, err := db.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}

	rows, total, err = db.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(rows) != 1 {
		t.Errorf("last page: total = %d len = %d, want 5 and 1", total, len(rows))
	}

	rows, total, err = db.List(ctx, Filter{Status: models.StatusFailed})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("failed filter: total = %d len = %d, want 2 and 2", total, len(rows))
	}
	for _, r := range rows {
		if r.Status != models.StatusFailed {
			t.Errorf("row %s status = %q", r.ID, r.Status)
		}
	}
}

func TestListOrderedByCreationDesc(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := db.Create(ctx, &models.Project{BrandName: "b", MainKeyword: "k"}); err != nil {
			t.Fatal(err)
		}
	}

	rows, _, err := db.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.After(rows[i-1].CreatedAt) {
			t.Errorf("rows not ordered by created_at desc at index %d", i)
		}
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := &models.Project{BrandName: "Acme", MainKeyword: "kw"}
	if err := db.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := db.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}
