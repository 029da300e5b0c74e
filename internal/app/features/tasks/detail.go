// internal/app/features/tasks/detail.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/trackhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDetail handles GET /task/detail/{id}. Any role may view any task;
// membership is not required to read.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	checks := append(h.Perms.Checks(routeperm.TaskDetail, nil, h.Members), projectpolicy.TaskExists(h.Tasks, id))
	res := gates.Require(w, r, h.ErrLog, checks...)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That task does not exist.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task failed", err, "A database error occurred.", "/")
		return
	}

	var projectName string
	p, err := h.Projects.GetByID(ctx, t.ProjectID)
	switch {
	case err == nil:
		projectName = p.Name
	case !errors.Is(err, projectstore.ErrNotFound):
		h.ErrLog.LogServerError(w, r, "load project failed", err, "A database error occurred.", "/")
		return
	}

	scope := projectpolicy.ByTask(h.Tasks, h.Projects, id)
	templates.Render(w, r, "task_detail", detailData{
		BaseVM:      viewdata.NewBaseVM(r, t.Summary, "/"),
		ID:          t.ID,
		Summary:     t.Summary,
		Description: htmlsanitize.PlainTextToHTML(t.Description),
		Status:      t.Status,
		Type:        t.Type,
		ProjectID:   t.ProjectID,
		ProjectName: projectName,
		CanUpdate:   h.allowed(ctx, res.Subject, routeperm.TaskUpdate, scope),
		CanDelete:   h.allowed(ctx, res.Subject, routeperm.TaskDelete, scope),
	})
}
