package docs

import "errors"

// The engine's exhaustive failure taxonomy. Every operation returns either a
// value or one of these sentinels (wrapped with context); callers map them to
// transport codes without inspecting messages.
var (
	ErrInvalidInput    = errors.New("docs: invalid input")
	ErrUnauthenticated = errors.New("docs: unauthenticated")
	ErrNotFound        = errors.New("docs: not found")
	ErrForbidden       = errors.New("docs: forbidden")
	ErrRateLimited     = errors.New("docs: rate limited")
	ErrInternal        = errors.New("docs: internal error")
)
