package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/domain"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/generation"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/guard"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrDocumentNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrAnalyticsNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// An in-flight analysis is not a failure; the trigger was accepted
	// by another worker.
	case errors.Is(err, guard.ErrAlreadyRunning):
		return http.StatusAccepted

	// Rate limiting
	case errors.Is(err, generation.ErrRateLimited):
		return http.StatusTooManyRequests

	// Conflict errors
	case errors.Is(err, store.ErrMisconceptionExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidJobType),
		errors.Is(err, task.ErrUnknownJobType):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, store.ErrDocumentNotFound):
		return "Document not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, store.ErrAnalyticsNotFound):
		return "Analytics not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// In-flight analysis
	case errors.Is(err, guard.ErrAlreadyRunning):
		return "Analysis already in progress"

	// Rate limiting
	case errors.Is(err, generation.ErrRateLimited):
		return "Too many requests, try again shortly"

	// Conflict errors
	case errors.Is(err, store.ErrMisconceptionExists),
		errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrEmptyContent):
		return "Content cannot be empty"

	case errors.Is(err, domain.ErrInvalidJobType),
		errors.Is(err, task.ErrUnknownJobType):
		return "Invalid job type"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return "Invalid request data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'DispatchRequest.MaxJobs' Error:Field validation for 'MaxJobs' failed on the 'lte' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			// Further split to get just the field validation part
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				// Create a cleaner error message
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
