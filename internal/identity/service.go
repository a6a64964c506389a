package identity

import (
	"context"
	"strings"

	"github.com/casedesk/casedesk/internal/shared"
)

// RepositoryPort defines data access methods for principal lookups.
type RepositoryPort interface {
	GetByAuthID(ctx context.Context, authUserID string) (*Principal, error)
}

// Service resolves authenticated subjects into principals.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CurrentUserInfo maps an auth subject to its user record. Inactive and
// unknown users resolve to shared.ErrNotFound so callers deny by default.
func (s *Service) CurrentUserInfo(ctx context.Context, authUserID string) (*Principal, error) {
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return nil, shared.ErrNotFound
	}
	p, err := s.repo.GetByAuthID(ctx, authUserID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.ErrNotFound
	}
	return p, nil
}
