// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/store/audit"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /audit/: the audit trail, newest first, filtered by
// category, event type, project and date range.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !gates.Require(w, r, h.ErrLog, h.Perms.Checks(routeperm.AuditList, nil, nil)...).OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.buildList(ctx, r)
	if errors.Is(err, paging.ErrInvalidPage) {
		uierrors.RenderNotFound(w, r, "Invalid page.", "/audit/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit log list failed", err, "A database error occurred.", "/")
		return
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Audit Log", "/")
	templates.Render(w, r, "audit_list", data)
}

func (h *Handler) buildList(ctx context.Context, r *http.Request) (listData, error) {
	data := listData{
		Category:   query.Get(r, "category"),
		EventType:  query.Get(r, "event_type"),
		StartDate:  query.Get(r, "start_date"),
		EndDate:    query.Get(r, "end_date"),
		Project:    query.Get(r, "project"),
		Categories: allCategories(),
	}
	// Unknown filter values are dropped rather than matching nothing.
	if !slices.Contains(data.Categories, data.Category) {
		data.Category = ""
	}
	data.EventTypes = eventTypesForCategory(data.Category)
	if !slices.Contains(data.EventTypes, data.EventType) {
		data.EventType = ""
	}

	filter := audit.QueryFilter{Category: data.Category, EventType: data.EventType}
	if t, err := time.Parse(dateLayout, data.StartDate); err == nil {
		filter.StartTime = &t
	} else {
		data.StartDate = ""
	}
	if t, err := time.Parse(dateLayout, data.EndDate); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	} else {
		data.EndDate = ""
	}
	if pid, ok := normalize.ID(data.Project); ok {
		filter.ProjectID = &pid
	} else {
		data.Project = ""
	}

	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		return data, err
	}
	pg, err := h.Pager.Resolve(paging.ParsePage(r), total)
	if err != nil {
		return data, err
	}
	filter.Offset = pg.Skip
	filter.Limit = pg.Limit

	var events []audit.Event
	if pg.Limit > 0 {
		if events, err = h.Events.Query(ctx, filter); err != nil {
			return data, err
		}
	}

	data.Items = h.items(ctx, events)
	data.Total = total
	data.Page = pg.Number
	data.TotalPages = pg.NumPages
	if pg.HasPrev() {
		data.PrevURL = data.pageURL(pg.PrevNumber())
	}
	if pg.HasNext() {
		data.NextURL = data.pageURL(pg.NextNumber())
	}
	return data, nil
}

// items resolves user and project ids to names. A failed lookup leaves the
// raw id in place.
func (h *Handler) items(ctx context.Context, events []audit.Event) []listItem {
	userSet := map[int64]bool{}
	projectSet := map[int64]bool{}
	for _, e := range events {
		if e.ActorID != nil {
			userSet[*e.ActorID] = true
		}
		if e.UserID != nil {
			userSet[*e.UserID] = true
		}
		if e.ProjectID != nil {
			projectSet[*e.ProjectID] = true
		}
	}

	userNames := map[int64]string{}
	if len(userSet) > 0 {
		users, err := h.Users.ListByIDs(ctx, keys(userSet))
		if err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		}
		for _, u := range users {
			userNames[u.ID] = u.Username
		}
	}
	projectNames := map[int64]string{}
	if len(projectSet) > 0 {
		names, err := h.Projects.NamesByID(ctx, keys(projectSet))
		if err != nil {
			h.Log.Warn("failed to fetch project names for audit log", zap.Error(err))
		} else {
			projectNames = names
		}
	}

	name := func(id *int64, names map[int64]string) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return "#" + strconv.FormatInt(*id, 10)
	}

	out := make([]listItem, 0, len(events))
	for _, e := range events {
		out = append(out, listItem{
			Timestamp:   e.Timestamp,
			Category:    e.Category,
			EventType:   e.EventType,
			ActorName:   name(e.ActorID, userNames),
			TargetName:  name(e.UserID, userNames),
			ProjectName: name(e.ProjectID, projectNames),
			IP:          e.IP,
			Success:     e.Success,
			Details:     e.Details,
		})
	}
	return out
}

func keys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (d listData) pageURL(page int) string {
	v := url.Values{}
	v.Set(paging.PageParam, strconv.Itoa(page))
	for k, val := range map[string]string{
		"category":   d.Category,
		"event_type": d.EventType,
		"start_date": d.StartDate,
		"end_date":   d.EndDate,
		"project":    d.Project,
	} {
		if val != "" {
			v.Set(k, val)
		}
	}
	return "/audit/?" + v.Encode()
}
