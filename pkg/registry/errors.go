package registry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicate indicates the registry rejected a create because the
	// external id is already taken.
	ErrDuplicate = errors.New("collection already exists in registry")
	// ErrNotFound indicates the registry has no object at the requested path.
	ErrNotFound = errors.New("registry object not found")
	// ErrUnauthorized indicates the app id or auth token was rejected.
	ErrUnauthorized = errors.New("registry credentials rejected")
	// ErrUnavailable indicates the circuit breaker is refusing calls.
	ErrUnavailable = errors.New("registry unavailable")
)

// Error is a failed registry call. StatusCode is zero for transport
// failures and breaker rejections.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("registry %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("registry %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches status-derived sentinels so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDuplicate:
		return e.StatusCode == http.StatusConflict
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// clientError reports whether the registry answered with a 4xx status.
// Those responses describe the request, not the health of the registry.
func clientError(err error) bool {
	var regErr *Error
	if !errors.As(err, &regErr) {
		return false
	}
	return regErr.StatusCode >= 400 && regErr.StatusCode < 500
}
