// internal/app/features/tasks/edit.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	taskstore "github.com/dalemusser/trackhub/internal/app/store/tasks"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeEdit handles GET /task/update/{id}.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !gates.Require(w, r, h.ErrLog, h.updateChecks(id)...).OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.loadTask(ctx, w, r, id)
	if !ok {
		return
	}
	in := taskInput{Summary: t.Summary, Description: t.Description, Status: t.Status, Type: t.Type}
	h.renderEdit(w, r, t, in, nil)
}

// HandleEdit handles POST /task/update/{id}. The owning project never
// changes; only the text, status and type fields are written.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := gates.Require(w, r, h.ErrLog, h.updateChecks(id)...)
	if !res.OK {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", detailURL(id))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.loadTask(ctx, w, r, id)
	if !ok {
		return
	}

	in := readForm(r)
	if errs := validate(in, h.Vocab); len(errs) > 0 {
		h.renderEdit(w, r, t, in, errs)
		return
	}

	err := h.Tasks.Update(ctx, id, taskstore.Update{
		Summary:     in.Summary,
		Description: in.Description,
		Status:      in.Status,
		Type:        in.Type,
	})
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That task does not exist.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update task failed", err, "A database error occurred.", detailURL(id))
		return
	}
	h.AuditLog.TaskUpdated(ctx, r, res.Subject.UserID, t.ProjectID, id, in.Summary)

	http.Redirect(w, r, detailURL(id), http.StatusSeeOther)
}

func (h *Handler) updateChecks(id int64) []authz.Check {
	return h.Perms.Checks(routeperm.TaskUpdate, projectpolicy.ByTask(h.Tasks, h.Projects, id), h.Members)
}

// loadTask fetches a task, writing a 404 or 500 on failure.
func (h *Handler) loadTask(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) (*models.Task, bool) {
	t, err := h.Tasks.GetByID(ctx, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That task does not exist.", "/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task failed", err, "A database error occurred.", "/")
		return nil, false
	}
	return t, true
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, t *models.Task, in taskInput, errs map[string]string) {
	templates.Render(w, r, "task_form", formData{
		BaseVM:      viewdata.NewBaseVM(r, "Edit task", detailURL(t.ID)),
		Action:      "/task/update/" + strconv.FormatInt(t.ID, 10),
		Submit:      "Save",
		ProjectID:   t.ProjectID,
		Summary:     in.Summary,
		Description: in.Description,
		Status:      in.Status,
		Type:        in.Type,
		Statuses:    h.Vocab.Statuses,
		Types:       h.Vocab.Types,
		Errors:      errs,
	})
}
