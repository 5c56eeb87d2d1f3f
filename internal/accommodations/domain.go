package accommodations

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
)

// Type enumerates the accommodation kinds the catalog accepts.
type Type string

const (
	TypeHotel     Type = "HOTEL"
	TypeCabin     Type = "CABIN"
	TypeHostel    Type = "HOSTEL"
	TypeApartment Type = "APARTMENT"
	TypeCamping   Type = "CAMPING"
)

// Known reports whether the type is a recognised accommodation kind.
func (t Type) Known() bool {
	switch t {
	case TypeHotel, TypeCabin, TypeHostel, TypeApartment, TypeCamping:
		return true
	}
	return false
}

// Accommodation represents a bookable property listing.
type Accommodation struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	Summary       string
	Type          Type
	DestinationID uuid.UUID
	OwnerID       uuid.UUID
	Visibility    access.Visibility
	PricePerNight float64
	Currency      string
	Rating        float64
	ReviewCount   int
	CreatedAt     time.Time
	CreatedBy     uuid.UUID
	UpdatedAt     time.Time
	DeletedAt     *time.Time
	DeletedBy     *string
}

// SearchFilters narrows accommodation listings.
type SearchFilters struct {
	Query         string
	DestinationID uuid.UUID
	OwnerID       uuid.UUID
	Type          Type
	Visibility    access.Visibility
	MinPrice      float64
	MaxPrice      float64
	Page          int
	PerPage       int
}

// CreateInput describes the creation payload. The owner is the creating
// actor; identity and audit columns are derived server-side.
type CreateInput struct {
	Name          string
	Summary       string
	Type          Type
	DestinationID uuid.UUID
	Visibility    access.Visibility
	PricePerNight float64
	Currency      string
}

// UpdateInput is a partial patch. OwnerID, CreatedAt, CreatedBy and ID are
// not representable here: the persistence path cannot mutate them no matter
// what the caller sends.
type UpdateInput struct {
	Name          *string
	Summary       *string
	Type          *Type
	DestinationID *uuid.UUID
	Visibility    *access.Visibility
	PricePerNight *float64
	Currency      *string
}

func subject(a *Accommodation) access.Subject {
	return access.Subject{
		Type:       "accommodation",
		ID:         a.ID.String(),
		OwnerID:    a.OwnerID.String(),
		Visibility: a.Visibility,
	}
}
