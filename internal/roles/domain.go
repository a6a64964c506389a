package roles

import "time"

// Role represents a permission grouping assignable to users.
type Role struct {
	ID        int64
	Name      string
	RoleType  string
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
