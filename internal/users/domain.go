package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
)

// User represents a platform account. Accounts are never publicly visible:
// each is a PRIVATE subject owned by itself, so the owner and any-scoped
// grants are the only ways in.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         access.Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput describes the admin-facing account creation payload.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     access.Role
}

// UpdateInput is a partial profile patch. Role, activation state and the
// password travel through dedicated operations, not this patch.
type UpdateInput struct {
	Email *string
	Name  *string
}
