package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/alexedwards/argon2id"
)

// MinPasswordLength applies to new passwords only; login accepts any
// non-empty password.
const MinPasswordLength = 6

// FieldError is a validation failure attached to one form field. Msg is
// meant to be shown to the user as is.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Msg }

var (
	ErrInvalidEmail     = &FieldError{Field: "email", Msg: "Please enter a valid email address."}
	ErrPasswordRequired = &FieldError{Field: "password", Msg: "Please enter your password."}
	ErrPasswordTooShort = &FieldError{Field: "newPassword", Msg: "New password must be at least 6 characters long."}
	ErrPasswordMismatch = &FieldError{Field: "confirmPassword", Msg: "New passwords do not match."}
	ErrWrongPassword    = &FieldError{Field: "currentPassword", Msg: "Incorrect current password."}
)

var ErrBadCredentials = errors.New("auth: invalid email or password")

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateLogin checks the shape of a login form.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateNewPassword checks a password being set, with its confirmation.
func ValidateNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func CheckPassword(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}
