// internal/app/features/projects/create.go
package projects

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ServeCreate handles GET /project/add/.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	if !gates.Require(w, r, h.ErrLog, h.Perms.Checks(routeperm.ProjectCreate, nil, h.Members)...).OK {
		return
	}
	h.renderCreate(w, r, formData{})
}

// HandleCreate handles POST /project/add/. When AutoJoinCreator is set the
// creator becomes the first member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.Require(w, r, h.ErrLog, h.Perms.Checks(routeperm.ProjectCreate, nil, h.Members)...)
	if !res.OK {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/project/")
		return
	}

	data := formData{
		Name:        strings.TrimSpace(htmlsanitize.StripTags(r.PostFormValue("name"))),
		Description: strings.TrimSpace(htmlsanitize.StripTags(r.PostFormValue("description"))),
	}
	errs := map[string]string{}
	switch n := utf8.RuneCountInString(data.Name); {
	case n == 0:
		errs["name"] = "This field is required."
	case n > maxName:
		errs["name"] = "Ensure this value has at most 100 characters."
	}
	if utf8.RuneCountInString(data.Description) > maxDescription {
		errs["description"] = "Ensure this value has at most 3000 characters."
	}
	if len(errs) > 0 {
		data.Errors = errs
		h.renderCreate(w, r, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.Create(ctx, models.Project{
		Name:        data.Name,
		Description: data.Description,
		CreatedBy:   res.Subject.UserID,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create project failed", err, "A database error occurred.", "/project/")
		return
	}

	joined := false
	if h.AutoJoinCreator {
		if _, err := h.Members.Add(ctx, p.ID, res.Subject.UserID); err != nil {
			// The project exists; report the failure but keep going.
			h.Log.Warn("auto-join creator failed",
				zap.Int64("project_id", p.ID),
				zap.Int64("user_id", res.Subject.UserID),
				zap.Error(err))
		} else {
			joined = true
		}
	}
	h.AuditLog.ProjectCreated(ctx, r, res.Subject.UserID, p.ID, p.Name, joined)

	http.Redirect(w, r, detailURL(p.ID), http.StatusSeeOther)
}

func (h *Handler) renderCreate(w http.ResponseWriter, r *http.Request, data formData) {
	data.BaseVM = viewdata.NewBaseVM(r, "New project", "/project/")
	templates.Render(w, r, "project_form", data)
}
