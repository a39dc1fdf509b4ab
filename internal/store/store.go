package store

import (
	"context"

	"github.com/starford/ansuz/internal/models"
)

// Update is a partial project update. Only non-nil fields are applied;
// everything else is left untouched.
type Update struct {
	Status             *models.Status
	SearchIntent       *string
	CompetitorAnalysis *string
	DraftOutline       *string
	Outline            *string
	Title              *string
	MetaDescription    *string
	Content            *string
	PublishedLink      *string
}

// Filter narrows and pages a project listing. Rows are always ordered by
// creation time descending.
type Filter struct {
	Status models.Status // empty means all
	Limit  int
	Offset int
}

// ProjectStore defines the persistence operations the pipeline depends on.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, upd Update) error
	List(ctx context.Context, f Filter) ([]models.Project, int, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Verify *DB satisfies ProjectStore at compile time.
var _ ProjectStore = (*DB)(nil)
