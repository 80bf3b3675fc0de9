package focus

// nonFocusByRole maps a job role to the categories considered distractions
// during that role's focus sessions. An unknown role resolves to an empty
// list and never flags anything.
var nonFocusByRole = map[string][]string{
	"Accountant":        {"entertainment", "social"},
	"Software Engineer": {"entertainment", "social"},
	"Designer":          {"entertainment", "social"},
	"Project Manager":   {"entertainment", "social"},
	"Student":           {"entertainment", "social"},
	"Writer":            {"entertainment", "social", "development"},
	"Support Agent":     {"entertainment"},
}

// NonFocusCategories returns the distraction category list for a job role.
func NonFocusCategories(role string) []string {
	return nonFocusByRole[role]
}

// Roles lists the job roles with a defined policy.
func Roles() []string {
	out := make([]string, 0, len(nonFocusByRole))
	for role := range nonFocusByRole {
		out = append(out, role)
	}
	return out
}
