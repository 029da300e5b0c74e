// internal/app/features/tasks/types.go
package tasks

import (
	"html/template"

	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
)

// Form limits, in characters.
const (
	maxSummary     = 200
	maxDescription = 3000
)

// taskInput is the validated form payload for create and update.
type taskInput struct {
	Summary     string
	Description string
	Status      string
	Type        string
}

type taskRow struct {
	ID          int64
	Summary     string
	Status      string
	Type        string
	ProjectID   int64
	ProjectName string
}

type listData struct {
	viewdata.BaseVM

	Search      string
	SearchError string

	Rows       []taskRow
	Count      int64
	Page       int
	NumPages   int
	RangeStart int64
	RangeEnd   int64
	PrevURL    string
	NextURL    string
}

type detailData struct {
	viewdata.BaseVM

	ID          int64
	Summary     string
	Description template.HTML
	Status      string
	Type        string
	ProjectID   int64
	ProjectName string

	CanUpdate bool
	CanDelete bool
}

type formData struct {
	viewdata.BaseVM

	// Action is the form's POST target.
	Action      string
	Submit      string
	ProjectID   int64
	ProjectName string

	Summary     string
	Description string
	Status      string
	Type        string

	Statuses []string
	Types    []string
	Errors   map[string]string
}

type deleteData struct {
	viewdata.BaseVM

	ID      int64
	Summary string
}
