package access

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/identity"
)

func newTestServer(t *testing.T, resolver *Resolver, subject string) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.ContextWithSubject(r.Context(), subject)))
		})
	})
	router.Route("/permissions", NewHandler(testLogger(), resolver, nil).MountRoutes)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestCheckEndpoint(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
	}}
	grants := &memoryGrants{grants: map[string]bool{
		grantKey(9, "cases", "view"): true,
	}}
	server := newTestServer(t, newTestResolver(principals, grants), "u-1")

	resp, err := http.Get(server.URL + "/permissions/check?elementKey=cases")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body checkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "cases", body.ElementKey)
	require.Equal(t, "view", body.PermissionType)
	require.True(t, body.HasPermission)
}

func TestCheckEndpointDenialIsStill200(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"u-1": {AuthUserID: "u-1", RoleID: 9},
	}}
	server := newTestServer(t, newTestResolver(principals, &memoryGrants{}), "u-1")

	resp, err := http.Get(server.URL + "/permissions/check?elementKey=cases&permissionType=edit")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body checkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.HasPermission)
}

func TestCheckEndpointValidation(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{}}
	server := newTestServer(t, newTestResolver(principals, &memoryGrants{}), "u-1")

	resp, err := http.Get(server.URL + "/permissions/check")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/permissions/check?elementKey=cases&permissionType=delete")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBulkCheckEndpoint(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{
		"cw-1": {AuthUserID: "cw-1", IsCaseWorker: true, RoleID: 7},
	}}
	server := newTestServer(t, newTestResolver(principals, &memoryGrants{}), "cw-1")

	payload := `[{"elementKey":"cases"},{"elementKey":"users_management","permissionType":"edit"}]`
	resp, err := http.Post(server.URL+"/permissions/bulk-check", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results map[string]bool `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 2)
	require.True(t, body.Results["cases.view"])
	require.False(t, body.Results["users_management.edit"])
}

func TestBulkCheckEndpointEmptyBody(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{}}
	server := newTestServer(t, newTestResolver(principals, &memoryGrants{}), "u-1")

	resp, err := http.Post(server.URL+"/permissions/bulk-check", "application/json", strings.NewReader(`[]`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results map[string]bool `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body.Results)
}

func TestBulkCheckEndpointValidation(t *testing.T) {
	principals := &memoryPrincipals{principals: map[string]*identity.Principal{}}
	server := newTestServer(t, newTestResolver(principals, &memoryGrants{}), "u-1")

	// Missing elementKey fails struct validation.
	resp, err := http.Post(server.URL+"/permissions/bulk-check", "application/json", strings.NewReader(`[{"permissionType":"view"}]`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed body.
	resp, err = http.Post(server.URL+"/permissions/bulk-check", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Over the item cap.
	items := make([]string, 0, maxBulkItems+1)
	for i := 0; i < maxBulkItems+1; i++ {
		items = append(items, `{"elementKey":"cases"}`)
	}
	resp, err = http.Post(server.URL+"/permissions/bulk-check", "application/json", strings.NewReader("["+strings.Join(items, ",")+"]"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
