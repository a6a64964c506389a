package bootstrap

import "github.com/casedesk/casedesk/internal/registry"

// RoleGrantSpec lists the element keys a role is granted by default.
type RoleGrantSpec struct {
	View []string
	Edit []string
}

// Operational keys every caseworker starts with. Matches the resolver's
// caseworker allow-list so the grant table and the shortcut agree on day one.
var caseworkerKeys = []string{
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

var citizenViewKeys = []string{
	"citizen_dashboard",
	"citizen_cases",
	"citizen_new_case",
	"citizen_case_detail",
	"citizen_profile",
	"citizen_knowledge",
}

var citizenEditKeys = []string{
	"citizen_new_case",
	"citizen_profile",
}

// DefaultRoleGrants maps role names to their seeded grants. Role names not
// present here are skipped during seeding. Both the "caseworker" and legacy
// "case_worker" spellings are recognised.
func DefaultRoleGrants() map[string]RoleGrantSpec {
	caseworker := RoleGrantSpec{View: caseworkerKeys, Edit: caseworkerKeys}
	all := registry.CatalogKeys()
	return map[string]RoleGrantSpec{
		"admin":       {View: all, Edit: all},
		"caseworker":  caseworker,
		"case_worker": caseworker,
		"citizen":     {View: citizenViewKeys, Edit: citizenEditKeys},
	}
}
