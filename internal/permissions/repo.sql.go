package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/shared"
)

const uniqueViolationCode = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasPermission resolves the flag matching permType for (role, element key).
// Missing element or grant rows resolve to false, not an error.
func (r *Repository) HasPermission(ctx context.Context, roleID int64, elementKey string, permType string) (bool, error) {
	const query = `
		SELECT CASE WHEN $3 = 'edit' THEN p.can_edit ELSE p.can_view END
		FROM permissions p
		JOIN registry_elements e ON e.id = p.element_id
		WHERE p.role_id = $1 AND e.element_key = $2`

	var allowed bool
	err := r.pool.QueryRow(ctx, query, roleID, elementKey, permType).Scan(&allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}

// GetGrant fetches the grant row for (role, element).
func (r *Repository) GetGrant(ctx context.Context, roleID, elementID int64) (*Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, role_id, element_id, can_view, can_edit, created_at, updated_at FROM permissions WHERE role_id = $1 AND element_id = $2`,
		roleID, elementID,
	).Scan(&p.ID, &p.RoleID, &p.ElementID, &p.CanView, &p.CanEdit, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert writes both flags for (role, element), creating the row on first use.
func (r *Repository) Upsert(ctx context.Context, roleID, elementID int64, canView, canEdit bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permissions (role_id, element_id, can_view, can_edit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role_id, element_id)
		DO UPDATE SET can_view = EXCLUDED.can_view, can_edit = EXCLUDED.can_edit, updated_at = NOW()`,
		roleID, elementID, canView, canEdit,
	)
	return err
}

// ListForRole returns all grant rows for one role.
func (r *Repository) ListForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, role_id, element_id, can_view, can_edit, created_at, updated_at FROM permissions WHERE role_id = $1`,
		roleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.ElementID, &p.CanView, &p.CanEdit, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// ListPairs returns the existing grant identities for the given roles.
func (r *Repository) ListPairs(ctx context.Context, roleIDs []int64) ([]Pair, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT role_id, element_id FROM permissions WHERE role_id = ANY($1)`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.RoleID, &p.ElementID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// InsertMany inserts the given rows in one batch. A duplicate identity maps
// to shared.ErrDuplicate so callers can distinguish races from hard failures.
func (r *Repository) InsertMany(ctx context.Context, perms []Permission) error {
	if len(perms) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range perms {
		batch.Queue(
			`INSERT INTO permissions (role_id, element_id, can_view, can_edit) VALUES ($1, $2, $3, $4)`,
			p.RoleID, p.ElementID, p.CanView, p.CanEdit,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range perms {
		if _, err := results.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return fmt.Errorf("permissions: insert: %w", shared.ErrDuplicate)
			}
			return fmt.Errorf("permissions: insert: %w", err)
		}
	}
	return nil
}
