// internal/domain/models/project.go
package models

import "time"

// Project groups tasks and owns a member set (see ProjectMembership).
type Project struct {
	ID          int64     `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	NameCI      string    `bson:"name_ci" json:"name_ci"`
	Description string    `bson:"description" json:"description"`
	CreatedBy   int64     `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// ProjectMembership is the authoritative join between users and projects.
// Exactly one document per (project_id, user_id).
type ProjectMembership struct {
	ProjectID int64     `bson:"project_id" json:"project_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
