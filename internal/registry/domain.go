package registry

import "time"

// Element types recognised by the UI registry.
const (
	TypePage    = "page"
	TypeButton  = "button"
	TypeFeature = "feature"
)

// Element is one addressable UI surface: a page, a button, or a feature
// toggle. Element keys are stable identifiers; permission rows and shortcut
// allow-lists reference them by string, so shipped keys must never be renamed
// without a data migration.
type Element struct {
	ID          int64
	ElementKey  string
	Module      string
	Screen      string
	ElementType string
	Label       string
	CreatedAt   time.Time
}
