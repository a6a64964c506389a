package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/shared"
)

// Repository provides PostgreSQL backed principal lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByAuthID fetches the user row joined with its role by auth subject.
func (r *Repository) GetByAuthID(ctx context.Context, authUserID string) (*Principal, error) {
	const query = `
		SELECT u.id, u.auth_user_id, u.email, u.full_name, u.is_active,
		       u.is_admin, u.is_super_admin, u.is_case_worker, u.is_citizen,
		       COALESCE(u.role_id, 0), COALESCE(r.name, ''), COALESCE(r.role_type, '')
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.auth_user_id = $1`

	var p Principal
	err := r.pool.QueryRow(ctx, query, authUserID).Scan(
		&p.UserID, &p.AuthUserID, &p.Email, &p.FullName, &p.IsActive,
		&p.IsAdmin, &p.IsSuperAdmin, &p.IsCaseWorker, &p.IsCitizen,
		&p.RoleID, &p.RoleName, &p.RoleType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
