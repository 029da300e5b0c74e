// internal/app/features/projects/types.go
package projects

import (
	"html/template"

	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
)

const (
	maxName        = 100
	maxDescription = 3000
)

type projectRow struct {
	ID          int64
	Name        string
	Description string
}

type listData struct {
	viewdata.BaseVM
	Rows      []projectRow
	CanCreate bool
}

type taskRow struct {
	ID      int64
	Summary string
	Status  string
	Type    string
}

type userRow struct {
	ID       int64
	Username string
	Name     string
}

type detailData struct {
	viewdata.BaseVM

	ID          int64
	Name        string
	Description template.HTML

	Tasks   []taskRow
	Members []userRow
	// Candidates are users not yet in the project, for the add picker.
	Candidates []userRow

	CanAddTask       bool
	CanManageMembers bool
}

type formData struct {
	viewdata.BaseVM
	Name        string
	Description string
	Errors      map[string]string
}
