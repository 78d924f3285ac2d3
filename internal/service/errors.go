package service

import "errors"

// Service errors carry the user-facing message; handlers choose the status
// code. Login failures share one message so callers cannot tell which part
// of the credentials was wrong.
var (
	ErrInvalidCredentials  = errors.New("Invalid credentials.")
	ErrUserNotFound        = errors.New("User not found")
	ErrPostNotFound        = errors.New("Post not found")
	ErrNotPostAuthor       = errors.New("Not authorized to modify this post")
	ErrInvalidRefreshToken = errors.New("Invalid refresh token")
	ErrNoRefreshToken      = errors.New("No refresh token provided")
)

// DuplicateFieldError reports which unique field a registration collided on.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return e.Field + " already exists"
}
