package destinations

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
)

// Destination represents a bookable region in the catalog.
type Destination struct {
	ID         uuid.UUID
	Slug       string
	Name       string
	Summary    string
	Country    string
	Visibility access.Visibility
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
	DeletedBy  *string
}

// SearchFilters narrows destination listings.
type SearchFilters struct {
	Query      string
	Country    string
	Visibility access.Visibility
	Page       int
	PerPage    int
}

// CreateInput describes the creation payload. Slug, id and audit fields
// are derived server-side and deliberately absent.
type CreateInput struct {
	Name       string
	Summary    string
	Country    string
	Visibility access.Visibility
}

// UpdateInput is a partial patch. Identity and provenance fields are not
// representable here, so a hostile payload cannot reach them.
type UpdateInput struct {
	Name       *string
	Summary    *string
	Country    *string
	Visibility *access.Visibility
}

func subject(d *Destination) access.Subject {
	return access.Subject{
		Type:       "destination",
		ID:         d.ID.String(),
		Visibility: d.Visibility,
	}
}
