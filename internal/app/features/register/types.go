// internal/app/features/register/types.go
package register

import "github.com/dalemusser/trackhub/internal/app/system/viewdata"

// Form field names.
const (
	fieldUsername  = "username"
	fieldPassword  = "password1"
	fieldConfirm   = "password2"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldEmail     = "email"
)

// registerInput is what the form posted, trimmed. Passwords are kept verbatim.
type registerInput struct {
	Username  string
	Password  string
	Confirm   string
	FirstName string
	LastName  string
	Email     string
}

type formData struct {
	viewdata.BaseVM

	// echo-on-error (never the passwords)
	Username  string
	FirstName string
	LastName  string
	Email     string

	Errors        map[string]string
	PasswordRules string
}
