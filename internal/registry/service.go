package registry

import "context"

// RepositoryPort defines data access methods for registry elements.
type RepositoryPort interface {
	ListElements(ctx context.Context, module string) ([]Element, error)
	GetByKey(ctx context.Context, key string) (*Element, error)
}

// Service handles registry read operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListElements returns elements, optionally filtered by module.
func (s *Service) ListElements(ctx context.Context, module string) ([]Element, error) {
	return s.repo.ListElements(ctx, module)
}

// GetByKey fetches one element by key.
func (s *Service) GetByKey(ctx context.Context, key string) (*Element, error) {
	return s.repo.GetByKey(ctx, key)
}
