package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability token such as
// "accommodation.update.own".
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// UserRole links a user account to a role.
type UserRole struct {
	UserID    uuid.UUID
	RoleID    int64
	CreatedAt time.Time
}
