package access

// Role names recognised by the shortcut rules.
const (
	RoleCaseworker = "caseworker"
	RoleCitizen    = "citizen"
)

// ShortcutPolicy names the hard-coded bypasses layered above the grant table:
// per-role element allow-lists and the citizen key prefix. It is injected into
// the Resolver so membership is swappable in tests without touching the
// resolution logic. A shortcut grants both view and edit; the grant table is
// not consulted. That also means the admin UI cannot revoke these elements
// for the covered roles.
type ShortcutPolicy struct {
	allow  map[string]map[string]struct{}
	prefix string
}

// NewShortcutPolicy builds a policy from role allow-lists and the citizen
// element-key prefix.
func NewShortcutPolicy(allowLists map[string][]string, citizenPrefix string) ShortcutPolicy {
	allow := make(map[string]map[string]struct{}, len(allowLists))
	for role, keys := range allowLists {
		set := make(map[string]struct{}, len(keys))
		for _, key := range keys {
			set[key] = struct{}{}
		}
		allow[role] = set
	}
	return ShortcutPolicy{allow: allow, prefix: citizenPrefix}
}

// Allows reports whether the role's allow-list contains the element key.
func (p ShortcutPolicy) Allows(roleName, elementKey string) bool {
	set, ok := p.allow[roleName]
	if !ok {
		return false
	}
	_, ok = set[elementKey]
	return ok
}

// CitizenPrefix returns the element-key prefix granted to citizens.
func (p ShortcutPolicy) CitizenPrefix() string {
	return p.prefix
}

// caseworkerAllowList is the fixed set of core operational elements a
// caseworker always keeps, even when an administrator has not populated (or
// has misconfigured) the grant table.
var caseworkerAllowList = []string{
	"dashboard",
	"cases",
	"cases.create_case",
	"cases.edit_case",
	"cases.assign_case",
	"cases.view_details",
	"case_detail",
	"notifications",
	"notifications.mark_read",
	"reports",
	"reports.create_report",
	"reports.edit_report",
	"reports.view_report",
	"reports.delete_report",
	"reports.report_builder",
	"knowledge",
	"insights",
}

// DefaultShortcutPolicy returns the shipped shortcut configuration.
func DefaultShortcutPolicy() ShortcutPolicy {
	return NewShortcutPolicy(map[string][]string{
		RoleCaseworker: caseworkerAllowList,
	}, RoleCitizen)
}
