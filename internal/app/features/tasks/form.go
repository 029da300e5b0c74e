// internal/app/features/tasks/form.go
package tasks

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/trackhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trackhub/internal/domain/models"
)

// readForm pulls the task fields from a parsed form. Markup is stripped from
// the free-text fields before validation.
func readForm(r *http.Request) taskInput {
	return taskInput{
		Summary:     strings.TrimSpace(htmlsanitize.StripTags(r.PostFormValue("summary"))),
		Description: strings.TrimSpace(htmlsanitize.StripTags(r.PostFormValue("description"))),
		Status:      strings.TrimSpace(r.PostFormValue("status")),
		Type:        strings.TrimSpace(r.PostFormValue("type")),
	}
}

// validate returns field errors keyed by form field name.
func validate(in taskInput, vocab models.TaskVocab) map[string]string {
	errs := map[string]string{}
	switch {
	case in.Summary == "":
		errs["summary"] = "This field is required."
	case utf8.RuneCountInString(in.Summary) > maxSummary:
		errs["summary"] = fmt.Sprintf("Ensure this value has at most %d characters.", maxSummary)
	}
	if utf8.RuneCountInString(in.Description) > maxDescription {
		errs["description"] = fmt.Sprintf("Ensure this value has at most %d characters.", maxDescription)
	}
	if !vocab.ValidStatus(in.Status) {
		errs["status"] = "Select a valid status."
	}
	if !vocab.ValidType(in.Type) {
		errs["type"] = "Select a valid type."
	}
	return errs
}
