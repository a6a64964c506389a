package permissions

import "time"

// Permission types addressable per grant.
const (
	TypeView = "view"
	TypeEdit = "edit"
)

// Permission is one per-(role, element) grant row. At most one row exists per
// pair; an absent row means deny for both flags.
type Permission struct {
	ID        int64
	RoleID    int64
	ElementID int64
	CanView   bool
	CanEdit   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pair is the composite identity of a grant row.
type Pair struct {
	RoleID    int64
	ElementID int64
}

// MatrixRow is one element row in the admin permission editor.
type MatrixRow struct {
	ElementKey  string
	Label       string
	ElementType string
	CanView     bool
	CanEdit     bool
}

// ModuleGroup groups matrix rows by module for the expandable editor table.
type ModuleGroup struct {
	Module string
	Rows   []MatrixRow
}

// RoleMatrix is the full editor payload for one role. ReadOnly mirrors the
// role's is_system flag so the UI can disable checkboxes.
type RoleMatrix struct {
	RoleID   int64
	RoleName string
	ReadOnly bool
	Modules  []ModuleGroup
}
