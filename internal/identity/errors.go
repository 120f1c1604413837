package identity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEmail      = errors.New("identity: invalid email")
	ErrWeakPassword      = errors.New("identity: password too short")
	ErrPasswordTooLong   = errors.New("identity: password too long")
	ErrAccountExists     = errors.New("identity: account already exists")
	ErrAccountNotFound   = errors.New("identity: no account found")
	ErrIncorrectPassword = errors.New("identity: incorrect password")
	ErrTooManyAttempts   = errors.New("identity: too many attempts")
	ErrUnavailable       = errors.New("identity: service unavailable")
	ErrInvalidSession    = errors.New("identity: invalid session")
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// PasswordLengthError wraps ErrWeakPassword or ErrPasswordTooLong with the
// bound that was crossed.
type PasswordLengthError struct {
	Err   error
	Limit int
}

func (e *PasswordLengthError) Error() string {
	return fmt.Sprintf("%v: limit is %d", e.Err, e.Limit)
}

func (e *PasswordLengthError) Unwrap() error { return e.Err }

// Reason turns an identity error into the sentence shown on the login
// screen. Unknown errors never leak their text.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrWeakPassword):
		var lenErr *PasswordLengthError
		if errors.As(err, &lenErr) {
			return fmt.Sprintf("Password must be at least %d characters.", lenErr.Limit)
		}
		return "Password is too short."
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d bytes.", maxPasswordBytes)
	case errors.Is(err, ErrAccountExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrAccountNotFound):
		return "No account found with this email. Please create an account."
	case errors.Is(err, ErrIncorrectPassword):
		return "Incorrect password. Please try again."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, ErrInvalidSession):
		return "Your session has expired. Please sign in again."
	default:
		return "Sign-in is unavailable right now. Please try again."
	}
}
