// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/trackhub/internal/app/store/projects"
	"github.com/dalemusser/trackhub/internal/app/system/authz"
	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeCreate handles GET /project/{id}/task/add/.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !gates.Require(w, r, h.ErrLog, h.createChecks(pid)...).OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, ok := h.loadProject(ctx, w, r, pid)
	if !ok {
		return
	}
	in := taskInput{}
	if len(h.Vocab.Statuses) > 0 {
		in.Status = h.Vocab.Statuses[0]
	}
	if len(h.Vocab.Types) > 0 {
		in.Type = h.Vocab.Types[0]
	}
	h.renderCreate(w, r, p, in, nil)
}

// HandleCreate handles POST /project/{id}/task/add/. The project comes from
// the path, never from the form.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := gates.Require(w, r, h.ErrLog, h.createChecks(pid)...)
	if !res.OK {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", projectURL(pid))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, ok := h.loadProject(ctx, w, r, pid)
	if !ok {
		return
	}

	in := readForm(r)
	if errs := validate(in, h.Vocab); len(errs) > 0 {
		h.renderCreate(w, r, p, in, errs)
		return
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		ProjectID:   pid,
		Summary:     in.Summary,
		Description: in.Description,
		Status:      in.Status,
		Type:        in.Type,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task failed", err, "A database error occurred.", projectURL(pid))
		return
	}
	h.AuditLog.TaskCreated(ctx, r, res.Subject.UserID, pid, t.ID, t.Summary)

	http.Redirect(w, r, detailURL(t.ID), http.StatusSeeOther)
}

func (h *Handler) createChecks(pid int64) []authz.Check {
	return h.Perms.Checks(routeperm.TaskCreate, projectpolicy.ByProject(h.Projects, pid), h.Members)
}

func (h *Handler) loadProject(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) (*models.Project, bool) {
	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That project does not exist.", "/project/")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load project failed", err, "A database error occurred.", "/project/")
		return nil, false
	}
	return p, true
}

func (h *Handler) renderCreate(w http.ResponseWriter, r *http.Request, p *models.Project, in taskInput, errs map[string]string) {
	templates.Render(w, r, "task_form", formData{
		BaseVM:      viewdata.NewBaseVM(r, "New task", projectURL(p.ID)),
		Action:      "/project/" + strconv.FormatInt(p.ID, 10) + "/task/add/",
		Submit:      "Create",
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Summary:     in.Summary,
		Description: in.Description,
		Status:      in.Status,
		Type:        in.Type,
		Statuses:    h.Vocab.Statuses,
		Types:       h.Vocab.Types,
		Errors:      errs,
	})
}
