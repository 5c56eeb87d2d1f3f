package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
)

// Status tracks a review through moderation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPublished Status = "PUBLISHED"
	StatusRejected  Status = "REJECTED"
)

// Known reports whether the status is a recognised moderation state.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// Review is a guest's rating of an accommodation. One review per author
// per accommodation.
type Review struct {
	ID              uuid.UUID
	AccommodationID uuid.UUID
	AuthorID        uuid.UUID
	Rating          int
	Title           string
	Body            string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ModeratedAt     *time.Time
	ModeratedBy     *uuid.UUID
	DeletedAt       *time.Time
	DeletedBy       *string
}

// CreateInput describes the creation payload. The author is the creating
// actor.
type CreateInput struct {
	AccommodationID uuid.UUID
	Rating          int
	Title           string
	Body            string
	IdempotencyKey  string
}

// UpdateInput is a partial patch an author may apply to its own review.
type UpdateInput struct {
	Rating *int
	Title  *string
	Body   *string
}

// subject maps moderation state onto the access model: a published review
// reads like any public entity, everything else is private to its author.
func subject(r *Review) access.Subject {
	vis := access.VisibilityPrivate
	if r.Status == StatusPublished {
		vis = access.VisibilityPublic
	}
	return access.Subject{
		Type:       "review",
		ID:         r.ID.String(),
		OwnerID:    r.AuthorID.String(),
		Visibility: vis,
	}
}
