package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/rinde/internal/common"
)

// ErrSessionExpired is returned after the backend rejected the session. The
// session has already been cleared and the notice posted.
var ErrSessionExpired = common.ErrSessionExpired

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method  string
	Path    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
