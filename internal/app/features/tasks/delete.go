// internal/app/features/tasks/delete.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDelete handles GET /task/delete/{id} with a confirmation page.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !gates.Require(w, r, h.ErrLog, h.deleteChecks(id)...).OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.loadTask(ctx, w, r, id)
	if !ok {
		return
	}
	templates.Render(w, r, "task_delete", deleteData{
		BaseVM:  viewdata.NewBaseVM(r, "Delete task", detailURL(id)),
		ID:      t.ID,
		Summary: t.Summary,
	})
}

// HandleDelete handles POST /task/delete/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := gates.Require(w, r, h.ErrLog, h.deleteChecks(id)...)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.loadTask(ctx, w, r, id)
	if !ok {
		return
	}
	if err := h.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That task does not exist.", "/")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete task failed", err, "A database error occurred.", detailURL(id))
		return
	}
	h.AuditLog.TaskDeleted(ctx, r, res.Subject.UserID, t.ProjectID, id, t.Summary)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) deleteChecks(id int64) []authz.Check {
	return h.Perms.Checks(routeperm.TaskDelete, projectpolicy.ByTask(h.Tasks, h.Projects, id), h.Members)
}
