package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/identity"
)

func requireStatus(t *testing.T, guard Guard, subject, elementKey string, permType PermissionType, want int) {
	t.Helper()
	var reached bool
	handler := guard.Require(elementKey, permType)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/permissions", nil)
	if subject != "" {
		req = req.WithContext(identity.ContextWithSubject(req.Context(), subject))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, want, rec.Code)
	require.Equal(t, want == http.StatusNoContent, reached)
}

func TestGuardRequire(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"admin-1": {AuthUserID: "admin-1", IsAdmin: true},
		"u-1":     {AuthUserID: "u-1", RoleID: 9},
	}}
	guard := Guard{Resolver: newTestResolver(principals, &memoryGrants{})}

	requireStatus(t, guard, "", "permissions_management", PermissionView, http.StatusUnauthorized)
	requireStatus(t, guard, "u-1", "permissions_management", PermissionView, http.StatusForbidden)
	requireStatus(t, guard, "admin-1", "permissions_management", PermissionEdit, http.StatusNoContent)
}
