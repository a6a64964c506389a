package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casedesk/casedesk/internal/identity"
	"github.com/casedesk/casedesk/internal/shared"
)

// PermissionType selects which grant flag a check consults.
type PermissionType string

// Supported permission types.
const (
	PermissionView PermissionType = "view"
	PermissionEdit PermissionType = "edit"
)

// ParsePermissionType validates a permission type string, defaulting to view.
func ParsePermissionType(s string) (PermissionType, error) {
	switch strings.TrimSpace(s) {
	case "", string(PermissionView):
		return PermissionView, nil
	case string(PermissionEdit):
		return PermissionEdit, nil
	default:
		return "", fmt.Errorf("%w: unknown permission type %q", shared.ErrValidation, s)
	}
}

// Resolution stages, used to label fail-closed denials in logs.
const (
	stagePrincipal = "principal"
	stageStore     = "store"
)

// ResolutionError wraps a failure from one of the resolver's collaborators.
// It never escapes the public API; CheckPermission collapses it to false.
type ResolutionError struct {
	Stage string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("access: %s resolution: %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// PrincipalSource resolves auth subjects into principals.
type PrincipalSource interface {
	CurrentUserInfo(ctx context.Context, authUserID string) (*identity.Principal, error)
}

// GrantSource answers data-driven permission lookups against the grant table.
type GrantSource interface {
	HasPermission(ctx context.Context, roleID int64, elementKey string, permType string) (bool, error)
}

// Resolver computes effective permission decisions for UI elements. Every
// public method is fail-closed: collaborator failures deny, they never
// propagate. Checks are not cached; each call re-resolves the principal and
// re-reads the grant table.
type Resolver struct {
	principals PrincipalSource
	grants     GrantSource
	policy     ShortcutPolicy
	logger     *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(principals PrincipalSource, grants GrantSource, policy ShortcutPolicy, logger *slog.Logger) *Resolver {
	return &Resolver{principals: principals, grants: grants, policy: policy, logger: logger}
}

// CheckPermission reports whether the subject may view or edit the element.
// Rules are ordered and short-circuiting: principal resolution, admin
// shortcut, caseworker allow-list, citizen prefix, then the grant table.
func (r *Resolver) CheckPermission(ctx context.Context, authUserID, elementKey string, permType PermissionType) bool {
	allowed, err := r.resolve(ctx, authUserID, elementKey, permType)
	if err != nil {
		r.denyOnError(elementKey, permType, err)
		return false
	}
	return allowed
}

func (r *Resolver) resolve(ctx context.Context, authUserID, elementKey string, permType PermissionType) (bool, error) {
	principal, err := r.principals.CurrentUserInfo(ctx, authUserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, &ResolutionError{Stage: stagePrincipal, Err: err}
	}
	if principal == nil {
		return false, nil
	}
	return r.evaluate(ctx, principal, elementKey, permType)
}

// evaluate applies the ordered rules against an already-resolved principal.
func (r *Resolver) evaluate(ctx context.Context, principal *identity.Principal, elementKey string, permType PermissionType) (bool, error) {
	if principal.IsAdmin || principal.IsSuperAdmin {
		return true, nil
	}

	// The caseworker shortcut intentionally ignores the permission type:
	// membership grants view and edit together.
	if principal.IsCaseWorker || principal.RoleName == RoleCaseworker {
		if r.policy.Allows(RoleCaseworker, elementKey) {
			return true, nil
		}
	}

	if principal.IsCitizen && r.policy.CitizenPrefix() != "" && strings.HasPrefix(elementKey, r.policy.CitizenPrefix()) {
		return true, nil
	}

	if principal.RoleID == 0 {
		return false, nil
	}
	allowed, err := r.grants.HasPermission(ctx, principal.RoleID, elementKey, string(permType))
	if err != nil {
		return false, &ResolutionError{Stage: stageStore, Err: err}
	}
	return allowed, nil
}

func (r *Resolver) denyOnError(elementKey string, permType PermissionType, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("permission check failed closed",
		slog.String("element_key", elementKey),
		slog.String("permission_type", string(permType)),
		slog.Any("error", err),
	)
}
