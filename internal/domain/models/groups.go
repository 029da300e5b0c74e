// internal/domain/models/groups.go
package models

import "strings"

// Role labels a user can hold. The set is fixed; assignment happens outside
// the registration flow.
const (
	GroupProjectManager = "Project Manager"
	GroupTeamLead       = "Team Lead"
	GroupDeveloper      = "Developer"
)

// AllGroups lists every known role label in display order.
var AllGroups = []string{GroupProjectManager, GroupTeamLead, GroupDeveloper}

// CanonicalGroup maps a label to its canonical spelling, ignoring case and
// surrounding space. ok is false for unknown labels.
func CanonicalGroup(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, g := range AllGroups {
		if strings.EqualFold(g, label) {
			return g, true
		}
	}
	return "", false
}
