package generation

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate text")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during text generation")

	// ErrRateLimited is returned when a call is denied by rate limiting. It is
	// distinct from ErrTransientFailure so user-facing callers can present a
	// "try again in N seconds" affordance instead of a hard error.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyPrompt is returned when the prompt is empty.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// RateLimitError wraps ErrRateLimited with the interval after which the
// caller may retry.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface for RateLimitError.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Millisecond))
}

// Unwrap returns ErrRateLimited so errors.Is(err, ErrRateLimited) holds.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NewRateLimitError creates a RateLimitError with the given retry-after hint.
func NewRateLimitError(retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{RetryAfter: retryAfter}
}
