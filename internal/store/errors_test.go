package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "wrapped generic error",
			err:      fmt.Errorf("failed to do something: %w", errors.New("some error")),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "ErrJobNotFound",
			err:      ErrJobNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrJobNotFound",
			err:      fmt.Errorf("failed to claim: %w", ErrJobNotFound),
			expected: true,
		},
		{
			name:     "ErrDocumentNotFound",
			err:      ErrDocumentNotFound,
			expected: true,
		},
		{
			name:     "ErrAnalyticsNotFound",
			err:      ErrAnalyticsNotFound,
			expected: true,
		},
		{
			name:     "duplicate error is not a not-found error",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ErrDuplicate",
			err:      ErrDuplicate,
			expected: true,
		},
		{
			name:     "ErrMisconceptionExists",
			err:      ErrMisconceptionExists,
			expected: true,
		},
		{
			name:     "wrapped ErrMisconceptionExists",
			err:      fmt.Errorf("failed to create: %w", ErrMisconceptionExists),
			expected: true,
		},
		{
			name:     "not-found error is not a duplicate error",
			err:      ErrJobNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateError(tt.err); got != tt.expected {
				t.Errorf("IsDuplicateError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		inner := errors.New("connection reset")
		err := NewStoreError("job", "claim", "failed to claim pending batch", inner)

		if !errors.Is(err, inner) {
			t.Error("StoreError should unwrap to the inner error")
		}

		msg := err.Error()
		for _, want := range []string{"claim", "job", "failed to claim pending batch", "connection reset"} {
			if !strings.Contains(msg, want) {
				t.Errorf("error message %q missing %q", msg, want)
			}
		}
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewStoreError("document", "update", "no rows affected", nil)

		if err.Unwrap() != nil {
			t.Error("Unwrap should return nil when no error is wrapped")
		}
		if !strings.Contains(err.Error(), "update operation on document failed") {
			t.Errorf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("sentinel survives StoreError wrapping", func(t *testing.T) {
		err := NewStoreError("job", "get", "lookup failed", ErrJobNotFound)

		if !IsNotFoundError(err) {
			t.Error("sentinel wrapped in StoreError should still be detected")
		}
	})
}
