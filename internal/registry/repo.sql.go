package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountElements reports how many registry rows exist.
func (r *Repository) CountElements(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registry_elements`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// InsertElements inserts the given rows in one batch.
func (r *Repository) InsertElements(ctx context.Context, elements []Element) error {
	if len(elements) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range elements {
		batch.Queue(
			`INSERT INTO registry_elements (element_key, module, screen, element_type, label) VALUES ($1, $2, $3, $4, $5)`,
			e.ElementKey, e.Module, e.Screen, e.ElementType, e.Label,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range elements {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("registry: insert element: %w", err)
		}
	}
	return nil
}

// ListElements returns elements, optionally filtered by module, ordered by
// module then key.
func (r *Repository) ListElements(ctx context.Context, module string) ([]Element, error) {
	const base = `SELECT id, element_key, module, screen, element_type, label, created_at FROM registry_elements`
	var (
		rows pgx.Rows
		err  error
	)
	if module != "" {
		rows, err = r.pool.Query(ctx, base+` WHERE module = $1 ORDER BY module, element_key`, module)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY module, element_key`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var elements []Element
	for rows.Next() {
		var e Element
		if err := rows.Scan(&e.ID, &e.ElementKey, &e.Module, &e.Screen, &e.ElementType, &e.Label, &e.CreatedAt); err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return elements, nil
}

// GetByKey fetches one element by its stable key.
func (r *Repository) GetByKey(ctx context.Context, key string) (*Element, error) {
	var e Element
	err := r.pool.QueryRow(ctx,
		`SELECT id, element_key, module, screen, element_type, label, created_at FROM registry_elements WHERE element_key = $1`,
		key,
	).Scan(&e.ID, &e.ElementKey, &e.Module, &e.Screen, &e.ElementType, &e.Label, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
