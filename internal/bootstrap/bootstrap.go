// Package bootstrap seeds the UI element registry and the default grants for
// built-in roles on an empty store.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/internal/registry"
	"github.com/casedesk/casedesk/internal/roles"
)

// ElementStore is the registry access the bootstrapper needs.
type ElementStore interface {
	CountElements(ctx context.Context) (int64, error)
	InsertElements(ctx context.Context, elements []registry.Element) error
	ListElements(ctx context.Context, module string) ([]registry.Element, error)
}

// RoleStore lists the known roles.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]roles.Role, error)
}

// GrantStore stages default permission rows.
type GrantStore interface {
	ListPairs(ctx context.Context, roleIDs []int64) ([]permissions.Pair, error)
	InsertMany(ctx context.Context, perms []permissions.Permission) error
}

// Bootstrapper performs the one-time registry and permission seed.
type Bootstrapper struct {
	elements ElementStore
	roles    RoleStore
	grants   GrantStore
	defaults map[string]RoleGrantSpec
	logger   *slog.Logger
}

// New constructs a Bootstrapper with the shipped catalog defaults.
func New(elements ElementStore, roleStore RoleStore, grants GrantStore, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		elements: elements,
		roles:    roleStore,
		grants:   grants,
		defaults: DefaultRoleGrants(),
		logger:   logger,
	}
}

// Run seeds the registry and default grants. The probe is an existence check,
// not a per-element diff: any row at all makes the whole run a no-op. A
// registry seeding failure aborts; a permission seeding failure is logged and
// swallowed, leaving the registry seed in place.
func (b *Bootstrapper) Run(ctx context.Context) error {
	count, err := b.elements.CountElements(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: probe registry: %w", err)
	}
	if count > 0 {
		b.logger.Info("registry already initialised, skipping bootstrap", slog.Int64("elements", count))
		return nil
	}

	catalog := registry.DefaultCatalog()
	if err := b.elements.InsertElements(ctx, catalog); err != nil {
		return fmt.Errorf("bootstrap: seed registry: %w", err)
	}
	b.logger.Info("registry seeded", slog.Int("elements", len(catalog)))

	if err := b.seedDefaultPermissions(ctx); err != nil {
		b.logger.Error("default permission seed incomplete", slog.Any("error", err))
	}
	return nil
}

// seedDefaultPermissions stages grant rows for every known role with a
// defaults entry, filtering out identities that already exist so the stage is
// safely re-runnable. Fetch failures log and return early; only the final
// insert reports an error upward (still non-fatal to Run).
func (b *Bootstrapper) seedDefaultPermissions(ctx context.Context) error {
	roleList, err := b.roles.ListRoles(ctx)
	if err != nil {
		b.logger.Warn("fetch roles for permission seed", slog.Any("error", err))
		return nil
	}
	elements, err := b.elements.ListElements(ctx, "")
	if err != nil {
		b.logger.Warn("fetch registry elements for permission seed", slog.Any("error", err))
		return nil
	}

	elementsByKey := make(map[string]registry.Element, len(elements))
	for _, e := range elements {
		elementsByKey[e.ElementKey] = e
	}

	var staged []permissions.Permission
	roleIDs := make([]int64, 0, len(roleList))
	for _, role := range roleList {
		roleIDs = append(roleIDs, role.ID)
		spec, ok := b.defaults[role.Name]
		if !ok {
			b.logger.Info("no default grants for role, skipping", slog.String("role", role.Name))
			continue
		}
		flags := make(map[int64]*permissions.Permission)
		stage := func(keys []string, edit bool) {
			for _, key := range keys {
				element, ok := elementsByKey[key]
				if !ok {
					continue
				}
				row, ok := flags[element.ID]
				if !ok {
					row = &permissions.Permission{RoleID: role.ID, ElementID: element.ID}
					flags[element.ID] = row
				}
				if edit {
					row.CanEdit = true
				} else {
					row.CanView = true
				}
			}
		}
		stage(spec.View, false)
		stage(spec.Edit, true)
		for _, row := range flags {
			if row.CanView || row.CanEdit {
				staged = append(staged, *row)
			}
		}
	}
	if len(staged) == 0 {
		return nil
	}

	existing, err := b.grants.ListPairs(ctx, roleIDs)
	if err != nil {
		b.logger.Warn("fetch existing grants for permission seed", slog.Any("error", err))
		return nil
	}
	seen := make(map[permissions.Pair]struct{}, len(existing))
	for _, pair := range existing {
		seen[pair] = struct{}{}
	}
	fresh := staged[:0]
	for _, row := range staged {
		if _, ok := seen[permissions.Pair{RoleID: row.RoleID, ElementID: row.ElementID}]; ok {
			continue
		}
		fresh = append(fresh, row)
	}
	if len(fresh) == 0 {
		b.logger.Info("default grants already present")
		return nil
	}

	if err := b.grants.InsertMany(ctx, fresh); err != nil {
		return fmt.Errorf("insert default grants: %w", err)
	}
	b.logger.Info("default grants seeded", slog.Int("rows", len(fresh)))
	return nil
}
