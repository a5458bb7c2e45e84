package domain

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrNotConfirmed    = errors.New("user has not confirmed email")
	ErrBadCredentials  = errors.New("password mismatch")
	ErrPostNotFound    = errors.New("post not found")
	ErrImageAlreadySet = errors.New("post image already set")
)

// AuthError 对外只暴露 Reason；Cause 留给日志。
// errors.Is 对 ErrUnauthorized 和 Cause 都成立。
type AuthError struct {
	Reason string
	Cause  error
}

func (e *AuthError) Error() string { return e.Reason }

func (e *AuthError) Unwrap() []error { return []error{ErrUnauthorized, e.Cause} }

func Unauthorized(reason string, cause error) error {
	return &AuthError{Reason: reason, Cause: cause}
}
