package access

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/shared"
	_ "github.com/casedesk/casedesk/testing"
)

type memoryPrincipals struct {
	principals map[string]*identity.Principal
	err        error
	lookups    int
}

func (m *memoryPrincipals) CurrentUserInfo(ctx context.Context, authUserID string) (*identity.Principal, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	principal, ok := m.principals[authUserID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return principal, nil
}

type memoryGrants struct {
	grants map[string]bool
	err    error
	calls  int
}

func grantKey(roleID int64, elementKey, permType string) string {
	return fmt.Sprintf("%d|%s|%s", roleID, elementKey, permType)
}

func (m *memoryGrants) HasPermission(ctx context.Context, roleID int64, elementKey, permType string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.grants[grantKey(roleID, elementKey, permType)], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(principals *memoryPrincipals, grants *memoryGrants) *Resolver {
	return NewResolver(principals, grants, DefaultShortcutPolicy(), testLogger())
}

func TestCheckPermissionAdminShortcut(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"admin-1": {AuthUserID: "admin-1", IsAdmin: true},
		"super-1": {AuthUserID: "super-1", IsSuperAdmin: true},
	}}
	grants := &memoryGrants{}
	resolver := newTestResolver(principals, grants)

	for _, subject := range []string{"admin-1", "super-1"} {
		require.True(t, resolver.CheckPermission(context.Background(), subject, "permissions_management", PermissionView))
		require.True(t, resolver.CheckPermission(context.Background(), subject, "permissions_management.edit_permissions", PermissionEdit))
		require.True(t, resolver.CheckPermission(context.Background(), subject, "no_such_element", PermissionEdit))
	}
	require.Zero(t, grants.calls, "admin decisions must not hit the grant store")
}

func TestCheckPermissionCaseworkerAllowList(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cw-1": {AuthUserID: "cw-1", IsCaseWorker: true, RoleID: 7},
	}}
	grants := &memoryGrants{err: errors.New("store down")}
	resolver := newTestResolver(principals, grants)

	for _, key := range caseworkerAllowList {
		require.True(t, resolver.CheckPermission(context.Background(), "cw-1", key, PermissionView), key)
		require.True(t, resolver.CheckPermission(context.Background(), "cw-1", key, PermissionEdit), key)
	}
	require.Zero(t, grants.calls, "allow-listed keys must not hit the grant store")
}

func TestCheckPermissionCaseworkerByRoleName(t *testing.T) {
	// The caseworker shortcut also matches on role name when the flag is unset.
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cw-2": {AuthUserID: "cw-2", RoleID: 7, RoleName: RoleCaseworker},
	}}
	grants := &memoryGrants{}
	resolver := newTestResolver(principals, grants)

	require.True(t, resolver.CheckPermission(context.Background(), "cw-2", "cases", PermissionEdit))
}

func TestCheckPermissionCaseworkerFallsThroughToGrants(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cw-1": {AuthUserID: "cw-1", IsCaseWorker: true, RoleID: 7},
	}}
	grants := &memoryGrants{grants: map[string]bool{
		grantKey(7, "users_management", "view"): true,
	}}
	resolver := newTestResolver(principals, grants)

	require.True(t, resolver.CheckPermission(context.Background(), "cw-1", "users_management", PermissionView))
	require.False(t, resolver.CheckPermission(context.Background(), "cw-1", "users_management", PermissionEdit))
	require.Equal(t, 2, grants.calls)
}

func TestCheckPermissionCitizenPrefix(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cz-1": {AuthUserID: "cz-1", IsCitizen: true, RoleID: 3},
	}}
	grants := &memoryGrants{}
	resolver := newTestResolver(principals, grants)

	require.True(t, resolver.CheckPermission(context.Background(), "cz-1", "citizen_dashboard", PermissionView))
	require.True(t, resolver.CheckPermission(context.Background(), "cz-1", "citizen_new_case", PermissionEdit))
	// Staff elements fall through to the grant table and deny.
	require.False(t, resolver.CheckPermission(context.Background(), "cz-1", "cases", PermissionView))
	require.Equal(t, 1, grants.calls)
}

func TestCheckPermissionDefaultDeny(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
		"u-2": {AuthUserID: "u-2"},
	}}
	grants := &memoryGrants{}
	resolver := newTestResolver(principals, grants)

	require.False(t, resolver.CheckPermission(context.Background(), "u-1", "cases", PermissionView))
	// No role assigned: denied without consulting the store.
	calls := grants.calls
	require.False(t, resolver.CheckPermission(context.Background(), "u-2", "cases", PermissionView))
	require.Equal(t, calls, grants.calls)
}

func TestCheckPermissionUnknownSubjectDenies(t *testing.T) {
	resolver := newTestResolver(&memoryPrincipals{principals: map[string]*identity.Principal{}}, &memoryGrants{})
	require.False(t, resolver.CheckPermission(context.Background(), "ghost", "cases", PermissionView))
}

func TestCheckPermissionFailsClosedOnPrincipalError(t *testing.T) {
	resolver := newTestResolver(&memoryPrincipals{err: errors.New("db down")}, &memoryGrants{})
	require.False(t, resolver.CheckPermission(context.Background(), "u-1", "cases", PermissionView))
}

func TestCheckPermissionFailsClosedOnStoreError(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
	}}
	resolver := newTestResolver(principals, &memoryGrants{err: errors.New("timeout")})
	require.False(t, resolver.CheckPermission(context.Background(), "u-1", "cases", PermissionView))
}

func TestParsePermissionType(t *testing.T) {
	permType, err := ParsePermissionType("")
	require.NoError(t, err)
	require.Equal(t, PermissionView, permType)

	permType, err = ParsePermissionType("edit")
	require.NoError(t, err)
	require.Equal(t, PermissionEdit, permType)

	_, err = ParsePermissionType("delete")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBulkCheckSharesPrincipalLookup(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
	}}
	grants := &memoryGrants{grants: map[string]bool{
		grantKey(9, "cases", "view"):   true,
		grantKey(9, "reports", "edit"): true,
	}}
	resolver := newTestResolver(principals, grants)

	items := []CheckItem{
		{ElementKey: "cases", PermissionType: PermissionView},
		{ElementKey: "reports", PermissionType: PermissionEdit},
		{ElementKey: "insights", PermissionType: PermissionView},
	}
	results := resolver.BulkCheckPermissions(context.Background(), "u-1", items)

	require.Equal(t, 1, principals.lookups)
	require.Len(t, results, 3)
	require.True(t, results["cases.view"])
	require.True(t, results["reports.edit"])
	require.False(t, results["insights.view"])
}

func TestBulkCheckItemIsolation(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cw-1": {AuthUserID: "cw-1", IsCaseWorker: true, RoleID: 7},
	}}
	// The store fails hard, so only allow-listed items can succeed.
	grants := &memoryGrants{err: errors.New("store down")}
	resolver := newTestResolver(principals, grants)

	items := []CheckItem{
		{ElementKey: "cases", PermissionType: PermissionView},
		{ElementKey: "users_management", PermissionType: PermissionView},
		{ElementKey: "dashboard", PermissionType: PermissionEdit},
	}
	results := resolver.BulkCheckPermissions(context.Background(), "cw-1", items)

	require.Len(t, results, 3)
	require.True(t, results["cases.view"])
	require.False(t, results["users_management.view"])
	require.True(t, results["dashboard.edit"])
}

func TestBulkCheckUnknownSubjectAllFalse(t *testing.T) {
	resolver := newTestResolver(&memoryPrincipals{principals: map[string]*identity.Principal{}}, &memoryGrants{})

	items := []CheckItem{
		{ElementKey: "cases", PermissionType: PermissionView},
		{ElementKey: "reports", PermissionType: PermissionEdit},
	}
	results := resolver.BulkCheckPermissions(context.Background(), "ghost", items)

	require.Len(t, results, 2)
	require.False(t, results["cases.view"])
	require.False(t, results["reports.edit"])
}

func TestCheckPermissionGrantsScopedToRole(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
		"u-2": {AuthUserID: "u-2", RoleID: 8},
	}}
	grants := &memoryGrants{grants: map[string]bool{
		grantKey(9, "cases", "view"): true,
	}}
	resolver := newTestResolver(principals, grants)

	require.True(t, resolver.CheckPermission(context.Background(), "u-1", "cases", PermissionView))
	require.False(t, resolver.CheckPermission(context.Background(), "u-2", "cases", PermissionView))
}

func TestShortcutPolicyMembership(t *testing.T) {
	policy := NewShortcutPolicy(map[string][]string{"auditor": {"reports"}}, "portal")
	require.True(t, policy.Allows("auditor", "reports"))
	require.False(t, policy.Allows("auditor", "cases"))
	require.False(t, policy.Allows("caseworker", "reports"))
	require.Equal(t, "portal", policy.CitizenPrefix())
}
