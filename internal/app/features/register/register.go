// internal/app/features/register/register.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	userstore "github.com/dalemusser/trackhub/internal/app/store/users"
	"github.com/dalemusser/trackhub/internal/app/system/auth"
	"github.com/dalemusser/trackhub/internal/app/system/authutil"
	"github.com/dalemusser/trackhub/internal/app/system/normalize"
	"github.com/dalemusser/trackhub/internal/app/system/timeouts"
	"github.com/dalemusser/trackhub/internal/app/system/viewdata"
	"github.com/dalemusser/trackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const maxNameLength = 150

// ServeRegister renders the empty form.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, registerInput{}, nil)
}

// HandleRegister validates the form, creates the user and signs them in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/accounts/register/")
		return
	}

	in := registerInput{
		Username:  normalize.Username(r.PostFormValue(fieldUsername)),
		Password:  r.PostFormValue(fieldPassword),
		Confirm:   r.PostFormValue(fieldConfirm),
		FirstName: normalize.Name(r.PostFormValue(fieldFirstName)),
		LastName:  normalize.Name(r.PostFormValue(fieldLastName)),
		Email:     normalize.Email(r.PostFormValue(fieldEmail)),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	errs := validate(in)
	if _, bad := errs[fieldUsername]; !bad {
		taken, err := h.Users.UsernameExists(ctx, in.Username)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "username lookup failed", err, "A database error occurred.", "/accounts/register/")
			return
		}
		if taken {
			errs[fieldUsername] = "A user with that username already exists."
		}
	}
	if len(errs) > 0 {
		h.render(w, r, in, errs)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Unable to create the account.", "/accounts/register/")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
	})
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		// Lost a race with a concurrent sign-up.
		h.render(w, r, in, map[string]string{fieldUsername: "A user with that username already exists."})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "Unable to create the account.", "/accounts/register/")
		return
	}
	h.AuditLog.UserRegistered(ctx, r, u.ID, u.Username)

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Groups:   u.Groups,
	}); err != nil {
		// The account exists; they can still sign in by hand.
		h.Log.Error("sign in after register failed", zap.Error(err), zap.Int64("user_id", u.ID))
		http.Redirect(w, r, auth.DefaultLoginPath, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// validate returns field errors keyed by form field name.
func validate(in registerInput) map[string]string {
	errs := map[string]string{}
	if err := authutil.ValidateUsername(in.Username); err != nil {
		errs[fieldUsername] = sentence(err)
	}
	if err := authutil.ValidatePasswordPair(in.Password, in.Confirm); err != nil {
		if authutil.IsConfirmError(err) {
			errs[fieldConfirm] = sentence(err)
		} else {
			errs[fieldPassword] = sentence(err)
		}
	}
	if utf8.RuneCountInString(in.FirstName) > maxNameLength {
		errs[fieldFirstName] = "First name is too long."
	}
	if utf8.RuneCountInString(in.LastName) > maxNameLength {
		errs[fieldLastName] = "Last name is too long."
	}
	if err := authutil.ValidateEmail(in.Email); err != nil {
		errs[fieldEmail] = sentence(err)
	}
	return errs
}

// sentence turns "password is required" into "Password is required."
func sentence(err error) string {
	s := err.Error()
	r, n := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[n:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, in registerInput, errs map[string]string) {
	templates.Render(w, r, "register", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Register", "/"),
		Username:      in.Username,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Errors:        errs,
		PasswordRules: authutil.PasswordRules(),
	})
}
