package model

import (
	"fmt"
	"time"
)

// BackendError wraps an HTTP status code from an LLM backend so the invoker
// can classify the failure without matching on message text.
type BackendError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend HTTP %d", e.StatusCode)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
