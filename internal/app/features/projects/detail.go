// internal/app/features/projects/detail.go
package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDetail handles GET /project/detail/{id}: the project's tasks, its
// members, and everyone else as candidates for the add-members picker.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	checks := append(h.Perms.Checks(routeperm.ProjectDetail, nil, h.Members), projectpolicy.ProjectExists(h.Projects, id))
	res := gates.Require(w, r, h.ErrLog, checks...)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, ok := h.loadProject(ctx, w, r, id)
	if !ok {
		return
	}

	tasks, err := h.Tasks.ListByProject(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list project tasks failed", err, "A database error occurred.", "/project/")
		return
	}
	memberIDs, err := h.Members.ListUserIDs(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", "/project/")
		return
	}
	everyone, err := h.Users.ListAll(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "A database error occurred.", "/project/")
		return
	}

	isMember := make(map[int64]bool, len(memberIDs))
	for _, uid := range memberIDs {
		isMember[uid] = true
	}
	var members, candidates []userRow
	for _, u := range everyone {
		row := toUserRow(u)
		if isMember[u.ID] {
			members = append(members, row)
		} else {
			candidates = append(candidates, row)
		}
	}

	taskRows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		taskRows = append(taskRows, taskRow{ID: t.ID, Summary: t.Summary, Status: t.Status, Type: t.Type})
	}

	scope := projectpolicy.ByProject(h.Projects, id)
	templates.Render(w, r, "project_detail", detailData{
		BaseVM:           viewdata.NewBaseVM(r, p.Name, "/project/"),
		ID:               p.ID,
		Name:             p.Name,
		Description:      htmlsanitize.PlainTextToHTML(p.Description),
		Tasks:            taskRows,
		Members:          members,
		Candidates:       candidates,
		CanAddTask:       h.allowed(ctx, res.Subject, routeperm.TaskCreate, scope),
		CanManageMembers: h.allowed(ctx, res.Subject, routeperm.UsersAdd, scope),
	})
}

func toUserRow(u models.User) userRow {
	return userRow{ID: u.ID, Username: u.Username, Name: u.DisplayName()}
}
