// internal/app/features/projects/list.go
package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/trackhub/internal/app/system/gates"
	"github.com/dalemusser/trackhub/internal/app/system/routeperm"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeList handles GET /project/.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.Require(w, r, h.ErrLog, h.Perms.Checks(routeperm.ProjectList, nil, h.Members)...)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Projects.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list projects failed", err, "A database error occurred.", "/")
		return
	}
	rows := make([]projectRow, 0, len(list))
	for _, p := range list {
		rows = append(rows, projectRow{ID: p.ID, Name: p.Name, Description: p.Description})
	}

	templates.Render(w, r, "project_list", listData{
		BaseVM:    viewdata.NewBaseVM(r, "Projects", "/"),
		Rows:      rows,
		CanCreate: h.allowed(ctx, res.Subject, routeperm.ProjectCreate, nil),
	})
}
