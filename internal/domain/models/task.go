// internal/domain/models/task.go
package models

import (
	"strings"
	"time"
)

// Task belongs to exactly one project. ProjectID is fixed at creation.
type Task struct {
	ID          int64     `bson:"_id" json:"id"`
	ProjectID   int64     `bson:"project_id" json:"project_id"`
	Summary     string    `bson:"summary" json:"summary"`
	Description string    `bson:"description" json:"description"`
	Status      string    `bson:"status" json:"status"`
	Type        string    `bson:"type" json:"type"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Default vocabularies used when configuration does not supply its own.
var (
	DefaultTaskStatuses = []string{"New", "In Progress", "Done"}
	DefaultTaskTypes    = []string{"Task", "Bug", "Enhancement"}
)

// TaskVocab holds the allowed values for Task.Status and Task.Type.
type TaskVocab struct {
	Statuses []string
	Types    []string
}

// DefaultTaskVocab returns a vocabulary built from the defaults.
func DefaultTaskVocab() TaskVocab {
	return TaskVocab{
		Statuses: append([]string(nil), DefaultTaskStatuses...),
		Types:    append([]string(nil), DefaultTaskTypes...),
	}
}

// ValidStatus reports whether s is an allowed status.
func (v TaskVocab) ValidStatus(s string) bool { return contains(v.Statuses, s) }

// ValidType reports whether t is an allowed type.
func (v TaskVocab) ValidType(t string) bool { return contains(v.Types, t) }

// ParseVocabList splits a comma separated list, trimming blanks.
func ParseVocabList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
