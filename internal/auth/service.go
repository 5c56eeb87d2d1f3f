package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderstay/wanderstay/internal/shared"
	"github.com/wanderstay/wanderstay/internal/users"
)

// DirectoryPort is the slice of the account directory the login flow needs.
type DirectoryPort interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	directory DirectoryPort
	sessions  SessionRepository
}

// NewService constructs a new Service.
func NewService(directory DirectoryPort, sessions SessionRepository) *Service {
	return &Service{directory: directory, sessions: sessions}
}

// Authenticate validates email/password credentials. Unknown accounts,
// deactivated accounts and wrong passwords all collapse into the same
// error so the response never reveals which part failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.directory.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Profile loads the account behind an authenticated session.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*users.User, error) {
	return s.directory.GetByID(ctx, userID)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return s.sessions.Create(ctx, SessionRecord{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
		IP:        ip,
		UserAgent: ua,
	})
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}
