package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/observability"
	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// maxBulkItems caps one bulk-check request.
const maxBulkItems = 200

// Handler exposes the permission check endpoints.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, resolver: resolver, metrics: metrics, validate: validator.New()}
}

// MountRoutes registers the check endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/check", h.check)
	r.Post("/bulk-check", h.bulkCheck)
}

type checkResponse struct {
	ElementKey     string `json:"elementKey"`
	PermissionType string `json:"permissionType"`
	HasPermission  bool   `json:"hasPermission"`
}

// check resolves one permission. Resolution failures are not surfaced as HTTP
// errors: the response is always 200 with hasPermission=false on denial.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	elementKey := r.URL.Query().Get("elementKey")
	if elementKey == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "elementKey is required")
		return
	}
	permType, err := ParsePermissionType(r.URL.Query().Get("permissionType"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	subject := identity.SubjectFromContext(r.Context())
	allowed := h.resolver.CheckPermission(r.Context(), subject, elementKey, permType)
	if h.metrics != nil {
		h.metrics.ObservePermissionCheck(string(permType), allowed)
	}
	httpx.JSON(w, http.StatusOK, checkResponse{
		ElementKey:     elementKey,
		PermissionType: string(permType),
		HasPermission:  allowed,
	})
}

type bulkCheckItem struct {
	ElementKey     string `json:"elementKey" validate:"required"`
	PermissionType string `json:"permissionType" validate:"omitempty,oneof=view edit"`
}

func (h *Handler) bulkCheck(w http.ResponseWriter, r *http.Request) {
	var payload []bulkCheckItem
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if len(payload) == 0 {
		httpx.JSON(w, http.StatusOK, map[string]any{"results": map[string]bool{}})
		return
	}
	if len(payload) > maxBulkItems {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "too many items")
		return
	}

	items := make([]CheckItem, 0, len(payload))
	for _, item := range payload {
		if err := h.validate.Struct(item); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		permType, err := ParsePermissionType(item.PermissionType)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		items = append(items, CheckItem{ElementKey: item.ElementKey, PermissionType: permType})
	}

	subject := identity.SubjectFromContext(r.Context())
	results := h.resolver.BulkCheckPermissions(r.Context(), subject, items)
	if h.metrics != nil {
		for _, item := range items {
			h.metrics.ObservePermissionCheck(string(item.PermissionType), results[item.ResultKey()])
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}
