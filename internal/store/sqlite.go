// Package store provides SQLite-backed persistence for pipeline projects.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	brand_name          TEXT NOT NULL,
	main_keyword        TEXT NOT NULL,
	lsi_keywords        TEXT NOT NULL DEFAULT '',
	secondary_keywords  TEXT NOT NULL DEFAULT '',
	output_language     TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'created',
	search_intent       TEXT NOT NULL DEFAULT '',
	competitor_analysis TEXT NOT NULL DEFAULT '',
	draft_outline       TEXT NOT NULL DEFAULT '',
	outline             TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	meta_description    TEXT NOT NULL DEFAULT '',
	content             TEXT NOT NULL DEFAULT '',
	published_link      TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);
`

// DB wraps a sql.DB with project-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Create inserts a new project, generating its id and timestamps.
// The given record is updated in place with the generated metadata.
func (db *DB) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.StatusCreated
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO projects (
			id, brand_name, main_keyword, lsi_keywords, secondary_keywords,
			output_language, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.BrandName, p.MainKeyword, p.LSIKeywords, p.SecondaryKeywords,
		p.OutputLanguage, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert project: %w", err)
	}
	return nil
}

const projectColumns = `id, brand_name, main_keyword, lsi_keywords, secondary_keywords,
	output_language, status, search_intent, competitor_analysis, draft_outline,
	outline, title, meta_description, content, published_link, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	var status string
	err := row.Scan(&p.ID, &p.BrandName, &p.MainKeyword, &p.LSIKeywords,
		&p.SecondaryKeywords, &p.OutputLanguage, &status, &p.SearchIntent,
		&p.CompetitorAnalysis, &p.DraftOutline, &p.Outline, &p.Title,
		&p.MetaDescription, &p.Content, &p.PublishedLink, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	return &p, nil
}

// Get returns the project with the given id, or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*models.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return p, nil
}

// Update applies only the non-nil fields of upd to the project and bumps
// updated_at. Returns apperr.ErrNotFound when no row matches.
func (db *DB) Update(ctx context.Context, id string, upd Update) error {
	var sets []string
	var args []any

	set := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	set("search_intent", upd.SearchIntent)
	set("competitor_analysis", upd.CompetitorAnalysis)
	set("draft_outline", upd.DraftOutline)
	set("outline", upd.Outline)
	set("title", upd.Title)
	set("meta_description", upd.MetaDescription)
	set("content", upd.Content)
	set("published_link", upd.PublishedLink)

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns a page of projects ordered by creation time descending,
// together with the total row count for the filter.
func (db *DB) List(ctx context.Context, f Filter) ([]models.Project, int, error) {
	where := ""
	var args []any
	if f.Status != "" {
		where = " WHERE status = ?"
		args = append(args, string(f.Status))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count projects: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects`+where+
			` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Delete removes the project with the given id, or apperr.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
