package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/shared"
)

type memoryPrincipalRepo struct {
	principals map[string]*Principal
}

func (r *memoryPrincipalRepo) GetByAuthID(ctx context.Context, authUserID string) (*Principal, error) {
	p, ok := r.principals[authUserID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func TestCurrentUserInfo(t *testing.T) {
	service := NewService(&memoryPrincipalRepo{principals: map[string]*Principal{
		"auth-1": {AuthUserID: "auth-1", Email: "a@casedesk.local", IsActive: true, RoleID: 2, RoleName: "caseworker"},
		"auth-2": {AuthUserID: "auth-2", Email: "b@casedesk.local", IsActive: false},
	}})
	ctx := context.Background()

	p, err := service.CurrentUserInfo(ctx, "auth-1")
	require.NoError(t, err)
	require.Equal(t, "caseworker", p.RoleName)

	// Subjects are trimmed before lookup.
	p, err = service.CurrentUserInfo(ctx, "  auth-1  ")
	require.NoError(t, err)
	require.Equal(t, "auth-1", p.AuthUserID)

	_, err = service.CurrentUserInfo(ctx, "auth-2")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = service.CurrentUserInfo(ctx, "")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = service.CurrentUserInfo(ctx, "ghost")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
