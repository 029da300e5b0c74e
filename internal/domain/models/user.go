// internal/domain/models/user.go
package models

import (
	"time"
)

// User is a registered identity.
//
// NOTE:
//   - Project membership is not embedded on User.
//     Use the project_memberships collection to discover a user's projects.
//   - Groups holds role labels (see groups.go), not project ids.
type User struct {
	ID           int64     `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	UsernameCI   string    `bson:"username_ci" json:"username_ci"` // folded, unique
	PasswordHash string    `bson:"password_hash" json:"-"`
	FirstName    string    `bson:"first_name" json:"first_name"`
	LastName     string    `bson:"last_name" json:"last_name"`
	Email        string    `bson:"email" json:"email"`
	Groups       []string  `bson:"groups" json:"groups"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns "First Last" when either part is set, else the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
