package bookmarks

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
)

// Bookmark pins an accommodation to a user's private collection. There is
// no public state: every bookmark is a PRIVATE subject owned by its user.
type Bookmark struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AccommodationID uuid.UUID
	Note            string
	CreatedAt       time.Time
}

func subject(b *Bookmark) access.Subject {
	return access.Subject{
		Type:       "bookmark",
		ID:         b.ID.String(),
		OwnerID:    b.UserID.String(),
		Visibility: access.VisibilityPrivate,
	}
}
