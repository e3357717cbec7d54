package translate

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyTranslation is returned when the service answers without text.
	ErrEmptyTranslation = errors.New("translation service returned no text")
	// ErrUnknownEngine is returned by the factory for unsupported engines.
	ErrUnknownEngine = errors.New("unknown translation engine")
	// ErrMissingCredential is returned when an engine requires a key.
	ErrMissingCredential = errors.New("translation credential is not configured")
)

// StatusError is a non-success HTTP answer from a translation backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// isPermanent reports whether err should stop the retry loop.
func isPermanent(err error) bool {
	if errors.Is(err, ErrEmptyTranslation) || errors.Is(err, ErrMissingCredential) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	// transport errors and timeouts are worth another attempt
	return false
}
