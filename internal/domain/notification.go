package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies what event a notification reports.
type NotificationKind string

// Supported notification kinds.
const (
	NotificationKindProcessingCompleted NotificationKind = "processing_completed"
	NotificationKindProcessingFailed    NotificationKind = "processing_failed"
)

// Notification-specific validation errors
var (
	// ErrNotificationIDEmpty is returned when a notification ID is empty or nil.
	ErrNotificationIDEmpty = errors.New("notification ID cannot be empty")

	// ErrNotificationUserIDEmpty is returned when the addressee is empty or nil.
	ErrNotificationUserIDEmpty = errors.New("notification user ID cannot be empty")

	// ErrNotificationMessageEmpty is returned when the message is empty.
	ErrNotificationMessageEmpty = errors.New("notification message cannot be empty")
)

// Notification is a user-visible record that a document's pipeline reached a
// terminal state. Exactly one is written per (document, kind) completion
// event; the store enforces the duplicate guard.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	UserID     uuid.UUID        `json:"user_id"`
	DocumentID uuid.UUID        `json:"document_id"`
	Kind       NotificationKind `json:"kind"`
	Message    string           `json:"message"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewNotification creates a new Notification addressed to the given user.
// Returns an error if validation fails.
func NewNotification(
	userID, documentID uuid.UUID,
	kind NotificationKind,
	message string,
) (*Notification, error) {
	n := &Notification{
		ID:         uuid.New(),
		UserID:     userID,
		DocumentID: documentID,
		Kind:       kind,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNotificationIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNotificationUserIDEmpty
	}

	if n.DocumentID == uuid.Nil {
		return errors.New("notification document ID cannot be empty")
	}

	if n.Message == "" {
		return ErrNotificationMessageEmpty
	}

	return nil
}
