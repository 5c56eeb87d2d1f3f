package tags

import (
	"time"

	"github.com/google/uuid"
)

// Tag labels accommodations for filtering. Tags are curated catalog
// metadata: always publicly readable, writable only through any-scoped
// grants.
type Tag struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	Category  string
	CreatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedAt time.Time
}

// CreateInput describes the creation payload.
type CreateInput struct {
	Name     string
	Category string
}

// UpdateInput is a partial patch.
type UpdateInput struct {
	Name     *string
	Category *string
}
