// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/validate"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is bcrypt's input limit in bytes. Longer passwords are
// rejected instead of being silently truncated.
const MaxPasswordLength = 72

// MaxUsernameLength bounds usernames (in characters).
const MaxUsernameLength = 150

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrConfirmRequired  = errors.New("please confirm the password")
	ErrPasswordMismatch = errors.New("the two password fields didn't match")

	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = fmt.Errorf("username must be %d characters or fewer", MaxUsernameLength)
	ErrUsernameInvalid  = errors.New("username may contain only letters, numbers, and @/./+/-/_ characters")

	ErrEmailInvalid = errors.New("enter a valid email address")
)

// ValidatePassword requires a non-empty password that bcrypt can hash whole.
func ValidatePassword(pw string) error {
	switch {
	case pw == "":
		return ErrPasswordRequired
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// ValidatePasswordPair validates pw and requires confirm to match it.
func ValidatePasswordPair(pw, confirm string) error {
	if err := ValidatePassword(pw); err != nil {
		return err
	}
	if confirm == "" {
		return ErrConfirmRequired
	}
	if pw != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// IsConfirmError reports whether err concerns the confirmation field.
func IsConfirmError(err error) bool {
	return errors.Is(err, ErrConfirmRequired) || errors.Is(err, ErrPasswordMismatch)
}

// PasswordRules describes the password policy for forms.
func PasswordRules() string {
	return fmt.Sprintf("Any characters, at most %d bytes.", MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. A malformed hash never matches.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ValidateUsername checks a trimmed username.
func ValidateUsername(u string) error {
	if u == "" {
		return ErrUsernameRequired
	}
	if utf8.RuneCountInString(u) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range u {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateEmail accepts an empty value (email is optional) or a
// plausible address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !validate.SimpleEmailValid(email) {
		return ErrEmailInvalid
	}
	return nil
}
