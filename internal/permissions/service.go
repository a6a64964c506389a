package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casedesk/casedesk/internal/notify"
	"github.com/casedesk/casedesk/internal/registry"
	"github.com/casedesk/casedesk/internal/roles"
	"github.com/casedesk/casedesk/internal/shared"
)

// RepositoryPort defines data access methods for grants.
type RepositoryPort interface {
	HasPermission(ctx context.Context, roleID int64, elementKey string, permType string) (bool, error)
	GetGrant(ctx context.Context, roleID, elementID int64) (*Permission, error)
	Upsert(ctx context.Context, roleID, elementID int64, canView, canEdit bool) error
	ListForRole(ctx context.Context, roleID int64) ([]Permission, error)
}

// RegistryPort exposes the registry lookups the grant editor needs.
type RegistryPort interface {
	ListElements(ctx context.Context, module string) ([]registry.Element, error)
	GetByKey(ctx context.Context, key string) (*registry.Element, error)
}

// RolesPort exposes role lookups.
type RolesPort interface {
	GetRole(ctx context.Context, id int64) (roles.Role, error)
}

// AuditPort records grant changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates grant reads and writes for the staff console.
type Service struct {
	repo     RepositoryPort
	registry RegistryPort
	roles    RolesPort
	audit    AuditPort
	sink     notify.Sink
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, reg RegistryPort, rolesPort RolesPort, audit AuditPort, sink notify.Sink, logger *slog.Logger) *Service {
	if sink == nil {
		sink = notify.NopSink{}
	}
	return &Service{repo: repo, registry: reg, roles: rolesPort, audit: audit, sink: sink, logger: logger}
}

// NormalizeType validates a permission type string, defaulting to view.
func NormalizeType(permType string) (string, error) {
	switch strings.TrimSpace(permType) {
	case "", TypeView:
		return TypeView, nil
	case TypeEdit:
		return TypeEdit, nil
	default:
		return "", fmt.Errorf("%w: unknown permission type %q", shared.ErrValidation, permType)
	}
}

// CanonicalElementKey folds the legacy (module, field) addressing into the
// canonical dotted key: the field sub-key is appended when present. Callers
// holding only legacy identities translate here, at the boundary.
func CanonicalElementKey(base, field string) string {
	base = strings.TrimSpace(base)
	field = strings.TrimSpace(field)
	if field == "" {
		return base
	}
	return base + "." + field
}

// HasPermission resolves the stored flag for (role, element key, type).
func (s *Service) HasPermission(ctx context.Context, roleID int64, elementKey string, permType string) (bool, error) {
	normalized, err := NormalizeType(permType)
	if err != nil {
		return false, err
	}
	return s.repo.HasPermission(ctx, roleID, elementKey, normalized)
}

// GetEffectivePermission resolves the stored flag for the admin editor.
func (s *Service) GetEffectivePermission(ctx context.Context, roleID int64, elementKey, field, permType string) (bool, error) {
	return s.HasPermission(ctx, roleID, CanonicalElementKey(elementKey, field), permType)
}

// SetPermission toggles one flag for (role, element). System roles are
// immutable through this path.
func (s *Service) SetPermission(ctx context.Context, actorID, roleID int64, elementKey, field, permType string, granted bool) error {
	normalized, err := NormalizeType(permType)
	if err != nil {
		return err
	}
	key := CanonicalElementKey(elementKey, field)

	role, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return shared.ErrSystemRole
	}

	element, err := s.registry.GetByKey(ctx, key)
	if err != nil {
		return err
	}

	canView, canEdit := false, false
	if current, err := s.repo.GetGrant(ctx, roleID, element.ID); err == nil {
		canView, canEdit = current.CanView, current.CanEdit
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if normalized == TypeEdit {
		canEdit = granted
	} else {
		canView = granted
	}

	if err := s.repo.Upsert(ctx, roleID, element.ID, canView, canEdit); err != nil {
		return err
	}

	s.recordChange(ctx, actorID, roleID, key, normalized, granted)
	return nil
}

// SetModulePermissions cascades a flag across every element of one module.
// Returns the number of elements written.
func (s *Service) SetModulePermissions(ctx context.Context, actorID, roleID int64, module, permType string, granted bool) (int, error) {
	normalized, err := NormalizeType(permType)
	if err != nil {
		return 0, err
	}

	role, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return 0, err
	}
	if role.IsSystem {
		return 0, shared.ErrSystemRole
	}

	elements, err := s.registry.ListElements(ctx, module)
	if err != nil {
		return 0, err
	}
	if len(elements) == 0 {
		return 0, fmt.Errorf("%w: module %q has no registry elements", shared.ErrNotFound, module)
	}

	grants := make(map[int64]Permission)
	existing, err := s.repo.ListForRole(ctx, roleID)
	if err != nil {
		return 0, err
	}
	for _, g := range existing {
		grants[g.ElementID] = g
	}

	for _, element := range elements {
		canView, canEdit := false, false
		if g, ok := grants[element.ID]; ok {
			canView, canEdit = g.CanView, g.CanEdit
		}
		if normalized == TypeEdit {
			canEdit = granted
		} else {
			canView = granted
		}
		if err := s.repo.Upsert(ctx, roleID, element.ID, canView, canEdit); err != nil {
			return 0, err
		}
	}

	s.recordChange(ctx, actorID, roleID, module+".*", normalized, granted)
	return len(elements), nil
}

// Matrix assembles the grant editor payload for one role, grouped by module.
func (s *Service) Matrix(ctx context.Context, roleID int64) (RoleMatrix, error) {
	role, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return RoleMatrix{}, err
	}

	elements, err := s.registry.ListElements(ctx, "")
	if err != nil {
		return RoleMatrix{}, err
	}

	grants := make(map[int64]Permission)
	existing, err := s.repo.ListForRole(ctx, roleID)
	if err != nil {
		return RoleMatrix{}, err
	}
	for _, g := range existing {
		grants[g.ElementID] = g
	}

	matrix := RoleMatrix{RoleID: role.ID, RoleName: role.Name, ReadOnly: role.IsSystem}
	for _, element := range elements {
		row := MatrixRow{
			ElementKey:  element.ElementKey,
			Label:       element.Label,
			ElementType: element.ElementType,
		}
		if g, ok := grants[element.ID]; ok {
			row.CanView, row.CanEdit = g.CanView, g.CanEdit
		}
		n := len(matrix.Modules)
		if n == 0 || matrix.Modules[n-1].Module != element.Module {
			matrix.Modules = append(matrix.Modules, ModuleGroup{Module: element.Module})
			n++
		}
		matrix.Modules[n-1].Rows = append(matrix.Modules[n-1].Rows, row)
	}
	return matrix, nil
}

func (s *Service) recordChange(ctx context.Context, actorID, roleID int64, key, permType string, granted bool) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "permission.set",
			Entity:   "permission",
			EntityID: fmt.Sprintf("%d:%s", roleID, key),
			Meta: map[string]any{
				"role_id":         roleID,
				"element_key":     key,
				"permission_type": permType,
				"granted":         granted,
			},
			At: time.Now().UTC(),
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("audit permission change", slog.Any("error", err))
		}
	}
	err := s.sink.PermissionChanged(ctx, notify.PermissionChangedEvent{
		ActorID:        actorID,
		RoleID:         roleID,
		ElementKey:     key,
		PermissionType: permType,
		Granted:        granted,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("notify permission change", slog.Any("error", err))
	}
}
