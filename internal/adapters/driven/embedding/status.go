// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// StatusError is a non-2xx response from an embedding provider.
// It unwraps to domain.ErrRateLimited for 429 and to
// domain.ErrEmbeddingUnavailable for 5xx so callers can decide on retries.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error implements error.
func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, msg)
}

// Unwrap maps the status onto a domain sentinel.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrEmbeddingUnavailable
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return domain.ErrCredentialsMissing
	default:
		return nil
	}
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
