package apperror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Handlers map these to HTTP status codes with
// errors.Is; the service layer never imports net/http.
var (
	ErrValidation         = errors.New("validation error")    // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 400
	ErrDuplicate          = errors.New("duplicate")           // 400
	ErrUnauthorized       = errors.New("unauthorized")        // 401
	ErrNotFound           = errors.New("not found")           // 404
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateUsername reports a registration against a username that already
// exists. The store's uniqueness constraint is the source of truth, so this
// comes from the constraint violation, not an application-level
// check-then-insert.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("username %q is already in use", username),
		Field:   "username",
	}
}

// InvalidCredentials is returned for BOTH an unknown username and a wrong
// password. The message is deliberately identical in the two cases, so the
// response doesn't reveal which usernames exist.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username/password combination",
	}
}

// Unauthorized returns an AppError indicating the caller is not allowed to
// perform the requested action. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
