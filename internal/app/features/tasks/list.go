// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/trackhub/internal/app/features/errors"
	"github.com/dalemusser/trackhub/internal/app/system/paging"
	"github.com/dalemusser/trackhub/internal/app/system/search"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// searchFields are matched by the list's search box.
var searchFields = []string{"summary", "description"}

// ServeList renders the task list at "/". It is public.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildList(r)
	switch {
	case errors.Is(err, paging.ErrInvalidPage):
		uierrors.RenderNotFound(w, r, "Invalid page.", "/")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "list tasks failed", err, "A database error occurred.", "/")
		return
	}
	templates.Render(w, r, "task_list", data)
}

// buildList resolves search and page for the request.
//
// A search pattern that fails validation is reported on the form and the
// list falls back to every task. Filtering happens before pagination.
func (h *Handler) buildList(r *http.Request) (listData, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	raw := query.Get(r, search.Param)
	q, err := search.Parse(raw)
	var searchErr string
	if err != nil {
		var se *search.Error
		if !errors.As(err, &se) {
			return listData{}, err
		}
		searchErr = se.Message
		q = search.Query{}
	}

	filter := q.Filter(searchFields...)
	count, err := h.Tasks.Count(ctx, filter)
	if err != nil && search.IsPatternError(err) {
		// Go and the server disagree on this pattern; treat it as invalid.
		h.Log.Debug("server rejected search pattern", zap.String("pattern", q.Pattern), zap.Error(err))
		searchErr = "Search is not a valid pattern."
		q = search.Query{}
		filter = bson.M{}
		count, err = h.Tasks.Count(ctx, filter)
	}
	if err != nil {
		return listData{}, err
	}

	pg, err := h.Pager.Resolve(paging.ParsePage(r), count)
	if err != nil {
		return listData{}, err
	}

	list, err := h.Tasks.List(ctx, filter, pg)
	if err != nil {
		return listData{}, err
	}
	rows, err := h.rows(ctx, list)
	if err != nil {
		return listData{}, err
	}

	data := listData{
		BaseVM:      viewdata.NewBaseVM(r, "Tasks", "/"),
		Search:      raw,
		SearchError: searchErr,
		Rows:        rows,
		Count:       pg.Count,
		Page:        pg.Number,
		NumPages:    pg.NumPages,
		RangeStart:  pg.Start,
		RangeEnd:    pg.End,
	}
	if pg.HasPrev() {
		data.PrevURL = pageURL(q.Pattern, pg.PrevNumber())
	}
	if pg.HasNext() {
		data.NextURL = pageURL(q.Pattern, pg.NextNumber())
	}
	return data, nil
}

// rows decorates tasks with their project names.
func (h *Handler) rows(ctx context.Context, list []models.Task) ([]taskRow, error) {
	seen := map[int64]bool{}
	var pids []int64
	for _, t := range list {
		if !seen[t.ProjectID] {
			seen[t.ProjectID] = true
			pids = append(pids, t.ProjectID)
		}
	}
	names, err := h.Projects.NamesByID(ctx, pids)
	if err != nil {
		return nil, err
	}
	rows := make([]taskRow, 0, len(list))
	for _, t := range list {
		rows = append(rows, taskRow{
			ID:          t.ID,
			Summary:     t.Summary,
			Status:      t.Status,
			Type:        t.Type,
			ProjectID:   t.ProjectID,
			ProjectName: names[t.ProjectID],
		})
	}
	return rows, nil
}
