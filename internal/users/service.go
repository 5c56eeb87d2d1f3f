package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, perPage int) ([]User, int, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service handles account management.
type Service struct {
	repo  RepositoryPort
	guard *access.Guard
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// GetByID returns one account visible to the actor: the account itself or
// a holder of the any-scoped view grant.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(u)); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns accounts for administrative screens.
func (s *Service) List(ctx context.Context, actor access.Actor, page, perPage int) ([]User, shared.Pagination, error) {
	probe := access.Subject{Type: "user", Visibility: access.VisibilityPrivate}
	if err := s.guard.AuthorizeView(ctx, actor, probe); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Create provisions an account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*User, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("users: email required")
	}
	if len(input.Password) < 8 {
		return nil, errors.New("users: password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = access.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}

	now := time.Now().UTC()
	u := User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.guard.RecordMutation(ctx, actor, subject(&u), "create")
	return &u, nil
}

// Update patches profile fields on the actor's own account or, with the
// any-scoped grant, on another account.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, patch UpdateInput) (*User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeUpdate(ctx, actor, subject(existing)); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, errors.New("users: email must not be blank")
		}
		patch.Email = &email
	}
	updated, err := s.repo.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ChangePassword sets a new password after verifying the current one.
// Only the account itself can change its password through this path.
func (s *Service) ChangePassword(ctx context.Context, actor access.Actor, id uuid.UUID, current, next string) error {
	if actor.IsPublic() {
		return fmt.Errorf("%w: change password", access.ErrPublicActorWrite)
	}
	if actor.ID != id.String() {
		return fmt.Errorf("%w: change password for %s", access.ErrForbidden, id)
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	if len(next) < 8 {
		return errors.New("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.SetPasswordHash(ctx, id, string(hash), time.Now().UTC())
}

// SetActive enables or disables an account. The actor cannot flip its own
// activation state: an admin locking itself out, or keeping itself alive
// while being offboarded, both go through another admin.
func (s *Service) SetActive(ctx context.Context, actor access.Actor, id uuid.UUID, active bool) error {
	if actor.ID == id.String() {
		return fmt.Errorf("%w: activation state", shared.ErrSelfAction)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if err := access.RequirePermission(actor, shared.PermUsersUpdateAny); err != nil {
		return err
	}
	if err := s.guard.AuthorizeUpdate(ctx, actor, subject(existing)); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active, time.Now().UTC()); err != nil {
		return err
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	s.guard.RecordMutation(ctx, actor, subject(existing), action)
	return nil
}

// Delete removes an account. Self-deletion is blocked for the same reason
// as self-deactivation.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if actor.ID == id.String() {
		return fmt.Errorf("%w: delete account", shared.ErrSelfAction)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if err := s.guard.AuthorizeDelete(ctx, actor, subject(existing)); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func subject(u *User) access.Subject {
	return access.Subject{
		Type:       "user",
		ID:         u.ID.String(),
		OwnerID:    u.ID.String(),
		Visibility: access.VisibilityPrivate,
	}
}
