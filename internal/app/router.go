package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/bootstrap"
	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/observability"
	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/internal/registry"
	"github.com/casedesk/casedesk/internal/roles"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Identity           identity.Middleware
	AccessHandler      *access.Handler
	PermissionsHandler *permissions.Handler
	RolesHandler       *roles.Handler
	RegistryHandler    *registry.Handler
	BootstrapHandler   *bootstrap.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with CaseDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(params.Identity.Authenticate)

		r.Route("/permissions", params.AccessHandler.MountRoutes)

		r.Route("/admin", func(r chi.Router) {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/registry", func(r chi.Router) {
				params.RegistryHandler.MountRoutes(r)
				params.BootstrapHandler.MountRoutes(r)
			})
		})
	})

	return r
}
