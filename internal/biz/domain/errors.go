package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSignature means the webhook signature was missing or did not match
	ErrBadSignature = errors.New("webhook signature mismatch")

	// ErrMalformedPayload means the webhook body failed schema validation
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrQueueSaturated means the dispatch queue is at capacity
	ErrQueueSaturated = errors.New("dispatch queue saturated")
)

// PostError is a classified outbound-posting failure
type PostError struct {
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *PostError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("post failed (%s, status %d): %v", kind, e.StatusCode, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a PostError eligible for retry
func IsRetryable(err error) bool {
	var pe *PostError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
