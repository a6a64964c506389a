package permissions

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/casedesk/casedesk/internal/access"
	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// PrincipalSource resolves the acting staff user for audit attribution.
type PrincipalSource interface {
	CurrentUserInfo(ctx context.Context, authUserID string) (*identity.Principal, error)
}

// Handler exposes the grant editor endpoints for the staff console.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	principals PrincipalSource
	guard      access.Guard
	validate   *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, principals PrincipalSource, guard access.Guard) *Handler {
	return &Handler{logger: logger, service: service, principals: principals, guard: guard, validate: validator.New()}
}

// MountRoutes registers grant editor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require("permissions_management", access.PermissionView))
		r.Get("/", h.matrix)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require("permissions_management", access.PermissionEdit))
		r.Put("/", h.setPermission)
		r.Post("/modules", h.setModule)
	})
}

type matrixRowResponse struct {
	ElementKey  string `json:"elementKey"`
	Label       string `json:"label"`
	ElementType string `json:"elementType"`
	CanView     bool   `json:"canView"`
	CanEdit     bool   `json:"canEdit"`
}

type moduleGroupResponse struct {
	Module string              `json:"module"`
	Rows   []matrixRowResponse `json:"rows"`
}

func (h *Handler) matrix(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(r.URL.Query().Get("roleId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "roleId is required")
		return
	}
	matrix, err := h.service.Matrix(r.Context(), roleID)
	if err != nil {
		h.logger.Error("permission matrix", slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	modules := make([]moduleGroupResponse, 0, len(matrix.Modules))
	for _, group := range matrix.Modules {
		rows := make([]matrixRowResponse, 0, len(group.Rows))
		for _, row := range group.Rows {
			rows = append(rows, matrixRowResponse{
				ElementKey:  row.ElementKey,
				Label:       row.Label,
				ElementType: row.ElementType,
				CanView:     row.CanView,
				CanEdit:     row.CanEdit,
			})
		}
		modules = append(modules, moduleGroupResponse{Module: group.Module, Rows: rows})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"roleId":   matrix.RoleID,
		"roleName": matrix.RoleName,
		"readOnly": matrix.ReadOnly,
		"modules":  modules,
	})
}

type setPermissionRequest struct {
	RoleID         int64  `json:"roleId" validate:"required"`
	ElementKey     string `json:"elementKey" validate:"required"`
	FieldName      string `json:"fieldName"`
	PermissionType string `json:"permissionType" validate:"omitempty,oneof=view edit"`
	Granted        *bool  `json:"granted" validate:"required"`
}

func (h *Handler) setPermission(w http.ResponseWriter, r *http.Request) {
	var payload setPermissionRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	err := h.service.SetPermission(r.Context(), actor.UserID, payload.RoleID, payload.ElementKey, payload.FieldName, payload.PermissionType, *payload.Granted)
	if err != nil {
		h.logger.Error("set permission",
			slog.Int64("role_id", payload.RoleID),
			slog.String("element_key", payload.ElementKey),
			slog.Any("error", err),
		)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type setModuleRequest struct {
	RoleID         int64  `json:"roleId" validate:"required"`
	Module         string `json:"module" validate:"required"`
	PermissionType string `json:"permissionType" validate:"omitempty,oneof=view edit"`
	Granted        *bool  `json:"granted" validate:"required"`
}

func (h *Handler) setModule(w http.ResponseWriter, r *http.Request) {
	var payload setModuleRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	updated, err := h.service.SetModulePermissions(r.Context(), actor.UserID, payload.RoleID, payload.Module, payload.PermissionType, *payload.Granted)
	if err != nil {
		h.logger.Error("set module permissions",
			slog.Int64("role_id", payload.RoleID),
			slog.String("module", payload.Module),
			slog.Any("error", err),
		)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok", "updated": updated})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*identity.Principal, bool) {
	subject := identity.SubjectFromContext(r.Context())
	principal, err := h.principals.CurrentUserInfo(r.Context(), subject)
	if err != nil || principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unknown actor")
		return nil, false
	}
	return principal, true
}
