package registry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// catalogEntry is the compact form the fixed catalog is declared in.
type catalogEntry struct {
	key    string
	module string
	screen string
	typ    string
}

// The fixed element catalog. Order matters only for readability; keys are the
// contract. New entries added here are not picked up automatically on an
// already-seeded store (the bootstrapper probes for existence, it does not
// diff), so shipping one requires a manual insert or a store wipe.
var catalog = []catalogEntry{
	{"dashboard", "dashboard", "dashboard", TypePage},

	{"cases", "cases", "cases", TypePage},
	{"cases.create_case", "cases", "cases", TypeButton},
	{"cases.edit_case", "cases", "cases", TypeButton},
	{"cases.assign_case", "cases", "cases", TypeButton},
	{"cases.view_details", "cases", "cases", TypeButton},

	{"case_detail", "case_detail", "case_detail", TypePage},
	{"case_detail.add_comment", "case_detail", "case_detail", TypeButton},
	{"case_detail.update_status", "case_detail", "case_detail", TypeButton},

	{"notifications", "notifications", "notifications", TypePage},
	{"notifications.mark_read", "notifications", "notifications", TypeButton},

	{"users_management", "users_management", "users_management", TypePage},
	{"users_management.create_user", "users_management", "users_management", TypeButton},
	{"users_management.edit_user", "users_management", "users_management", TypeButton},
	{"users_management.deactivate_user", "users_management", "users_management", TypeButton},

	{"permissions_management", "permissions_management", "permissions_management", TypePage},
	{"permissions_management.edit_permissions", "permissions_management", "permissions_management", TypeButton},

	{"roles_management", "roles_management", "roles_management", TypePage},
	{"roles_management.create_role", "roles_management", "roles_management", TypeButton},
	{"roles_management.edit_role", "roles_management", "roles_management", TypeButton},

	{"reports", "reports", "reports", TypePage},
	{"reports.create_report", "reports", "reports", TypeButton},
	{"reports.edit_report", "reports", "reports", TypeButton},
	{"reports.view_report", "reports", "reports", TypeButton},
	{"reports.delete_report", "reports", "reports", TypeButton},
	{"reports.report_builder", "reports", "reports", TypeFeature},

	{"knowledge", "knowledge", "knowledge", TypePage},
	{"insights", "insights", "insights", TypePage},

	{"citizen_dashboard", "citizen", "citizen_dashboard", TypePage},
	{"citizen_cases", "citizen", "citizen_cases", TypePage},
	{"citizen_new_case", "citizen", "citizen_new_case", TypePage},
	{"citizen_case_detail", "citizen", "citizen_case_detail", TypePage},
	{"citizen_profile", "citizen", "citizen_profile", TypePage},
	{"citizen_knowledge", "citizen", "citizen_knowledge", TypePage},
}

var labelCaser = cases.Title(language.English)

// DefaultCatalog returns the fixed catalog as element rows.
func DefaultCatalog() []Element {
	elements := make([]Element, 0, len(catalog))
	for _, entry := range catalog {
		elements = append(elements, Element{
			ElementKey:  entry.key,
			Module:      entry.module,
			Screen:      entry.screen,
			ElementType: entry.typ,
			Label:       labelFor(entry.key),
		})
	}
	return elements
}

// CatalogKeys returns every element key in the fixed catalog.
func CatalogKeys() []string {
	keys := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		keys = append(keys, entry.key)
	}
	return keys
}

// labelFor derives a display label from the last segment of the key,
// e.g. "cases.create_case" becomes "Create Case".
func labelFor(key string) string {
	segments := strings.Split(key, ".")
	last := segments[len(segments)-1]
	return labelCaser.String(strings.ReplaceAll(last, "_", " "))
}
