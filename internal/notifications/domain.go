package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification for inbox filtering.
type Kind string

const (
	KindSystem  Kind = "SYSTEM"
	KindBooking Kind = "BOOKING"
	KindReview  Kind = "REVIEW"
)

// Known reports whether the kind is recognised.
func (k Kind) Known() bool {
	switch k {
	case KindSystem, KindBooking, KindReview:
		return true
	}
	return false
}

// Notification is one inbox entry. Inboxes are strictly personal: every
// notification is a PRIVATE subject owned by its recipient.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      Kind
	Title     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// Unread reports whether the recipient has not opened the entry yet.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}

// SendInput is the fan-out payload: one message delivered to every listed
// recipient.
type SendInput struct {
	UserIDs []uuid.UUID
	Kind    Kind
	Title   string
	Body    string
}
