package registry

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// Handler exposes registry element listings for the staff console.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   access.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard access.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require("permissions_management", access.PermissionView))
		r.Get("/", h.listElements)
	})
}

type elementResponse struct {
	ElementKey  string `json:"elementKey"`
	Module      string `json:"module"`
	Screen      string `json:"screen"`
	ElementType string `json:"elementType"`
	Label       string `json:"label"`
}

func (h *Handler) listElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListElements(r.Context(), r.URL.Query().Get("module"))
	if err != nil {
		h.logger.Error("list registry elements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]elementResponse, 0, len(elements))
	for _, e := range elements {
		out = append(out, elementResponse{
			ElementKey:  e.ElementKey,
			Module:      e.Module,
			Screen:      e.Screen,
			ElementType: e.ElementType,
			Label:       e.Label,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"elements": out})
}
