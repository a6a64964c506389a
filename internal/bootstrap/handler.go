package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// Handler exposes the registry bootstrap as an explicit admin action. The
// route is mounted behind bearer authentication, so even the operator-key path
// needs a valid token; before any grants exist the operator mints one with the
// shared JWT secret and the key then stands in for the missing permission.
type Handler struct {
	logger       *slog.Logger
	bootstrapper *Bootstrapper
	resolver     *access.Resolver
	// keyHash is a bcrypt hash of the operator key. It lets the seed run
	// before any admin grants exist; empty disables the key path.
	keyHash string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, bootstrapper *Bootstrapper, resolver *access.Resolver, keyHash string) *Handler {
	return &Handler{logger: logger, bootstrapper: bootstrapper, resolver: resolver, keyHash: keyHash}
}

// MountRoutes registers the bootstrap route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/bootstrap", h.runBootstrap)
}

func (h *Handler) runBootstrap(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "bootstrap requires an operator key or permissions_management access")
		return
	}
	if err := h.bootstrapper.Run(r.Context()); err != nil {
		h.logger.Error("registry bootstrap", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Bootstrap Failed", "registry seeding failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.keyHash != "" {
		if key := r.Header.Get("X-Bootstrap-Key"); key != "" {
			if bcrypt.CompareHashAndPassword([]byte(h.keyHash), []byte(key)) == nil {
				return true
			}
		}
	}
	subject := identity.SubjectFromContext(r.Context())
	if subject == "" {
		return false
	}
	return h.resolver.CheckPermission(r.Context(), subject, "permissions_management", access.PermissionEdit)
}
