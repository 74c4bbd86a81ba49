package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/oops"
)

// Fixed response messages for the user-facing failure paths.
const (
	MsgPasswordTooShort   = "Password must be longer than 3 chars"
	MsgPasswordTooLong    = "Password must be at most 72 bytes"
	MsgUsernameRequired   = "Username is required"
	MsgUsernameTooLong    = "Username must be at most 100 chars"
	MsgUsernameTaken      = "Username taken"
	MsgInvalidCredentials = "Invalid credentials"
)

// Error codes attached to failures that reach the central error handler.
const (
	CodeIntegrityViolation = "AUTH_INTEGRITY_VIOLATION"
	CodeRegisterFailed     = "AUTH_REGISTER_FAILED"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeLogoutFailed       = "AUTH_LOGOUT_FAILED"
	CodeInternal           = "INTERNAL"
)

// ErrIntegrityViolation marks storage states that contradict the uniqueness
// of usernames: a duplicate insert that slipped past validation, or several
// users returned for one username.
var ErrIntegrityViolation = errors.New("user store integrity violation")

// Rejection is an expected, user-facing failure with a fixed status and
// message. Validator stages and the login password check produce it.
type Rejection struct {
	Status  int
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%d %s", r.Status, r.Message)
}

func reject(status int, message string) *Rejection {
	return &Rejection{Status: status, Message: message}
}

func invalidCredentials() *Rejection {
	return reject(http.StatusUnauthorized, MsgInvalidCredentials)
}

// AsRejection reports whether err carries a Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrorCode returns the oops code attached to err, or CodeInternal.
func ErrorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return CodeInternal
}
