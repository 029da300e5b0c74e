// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/trackhub/internal/app/store/audit"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	Timestamp   time.Time
	Category    string
	EventType   string
	ActorName   string // resolved from ActorID
	TargetName  string // resolved from UserID
	ProjectName string // resolved from ProjectID
	IP          string
	Success     bool
	Details     map[string]string
}

type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters, echoed back into the form
	Category  string
	EventType string
	StartDate string
	EndDate   string
	Project   string

	Categories []string
	EventTypes []string

	Page       int
	TotalPages int
	Total      int64
	PrevURL    string
	NextURL    string
}

func allCategories() []string {
	return []string{audit.CategoryAuth, audit.CategoryAdmin}
}

func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventUserRegistered,
	}
	adminEvents := []string{
		audit.EventProjectCreated,
		audit.EventMemberAddedToProject,
		audit.EventMemberRemovedFromProject,
		audit.EventTaskCreated,
		audit.EventTaskUpdated,
		audit.EventTaskDeleted,
		audit.EventGroupGranted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		return append(all, adminEvents...)
	default:
		return nil
	}
}
