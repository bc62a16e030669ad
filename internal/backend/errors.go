package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"eventlens-client/internal/normalize"
)

var (
	ErrNotAuthenticated   = errors.New("not signed in")
	ErrUnauthorized       = errors.New("access denied by backend")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("request conflicts with current state")
	ErrBadRequest         = errors.New("request rejected by backend")
	ErrUnavailable        = errors.New("backend is temporarily unavailable")
	ErrTimeout            = errors.New("request timed out")
	ErrRequestFailed      = errors.New("backend request failed")
	ErrUnexpectedResponse = errors.New("unexpected response from backend")
)

// Error records which backend call failed and the HTTP status, when one was received
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend.%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// handleNetworkError maps transport failures onto the package's sentinel errors
func handleNetworkError(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// handleBackendError maps a non-2xx response. The body is probed for a
// human-readable message under detail, error, or message, enveloped or not.
func handleBackendError(statusCode int, body []byte) error {
	var sentinel error
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case statusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case statusCode == http.StatusConflict:
		sentinel = ErrConflict
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		sentinel = ErrBadRequest
	case statusCode >= http.StatusInternalServerError:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrRequestFailed
	}

	if msg := errorMessage(body); msg != "" {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}

func errorMessage(body []byte) string {
	obj, ok := normalize.Unwrap(body).(map[string]any)
	if !ok {
		return ""
	}

	rec := normalize.NormalizeItem(obj)
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := rec[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
