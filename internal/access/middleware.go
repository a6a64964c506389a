package access

import (
	"fmt"
	"net/http"

	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/platform/httpx"
	"github.com/casedesk/casedesk/internal/shared"
)

// Guard wires resolver-backed authorization helpers for HTTP handlers.
type Guard struct {
	Resolver *Resolver
}

// Require ensures the current subject holds the given permission on the
// element before the wrapped handler runs.
func (g Guard) Require(elementKey string, permType PermissionType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := identity.SubjectFromContext(r.Context())
			if subject == "" {
				httpx.RespondError(w, fmt.Errorf("%w: authentication required", shared.ErrUnauthorized))
				return
			}
			if !g.Resolver.CheckPermission(r.Context(), subject, elementKey, permType) {
				httpx.RespondError(w, fmt.Errorf("%w: %s access to %s denied", shared.ErrForbidden, permType, elementKey))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
