package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// Handler exposes role listings for the staff console.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   access.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require("roles_management", access.PermissionView))
		r.Get("/", h.listRoles)
	})
}

type roleResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RoleType string `json:"roleType"`
	IsSystem bool   `json:"isSystem"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(list))
	for _, role := range list {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, RoleType: role.RoleType, IsSystem: role.IsSystem})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}
