package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Bookmark, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]Bookmark, int, error)
	Create(ctx context.Context, b Bookmark) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogPort is the slice of the accommodations module bookmarks depend on.
type CatalogPort interface {
	VerifyViewable(ctx context.Context, actor access.Actor, accommodationID uuid.UUID) error
}

// Service manages per-user bookmark collections.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	guard   *access.Guard
}

// NewService constructs bookmark service.
func NewService(repo RepositoryPort, catalog CatalogPort, guard *access.Guard) *Service {
	return &Service{repo: repo, catalog: catalog, guard: guard}
}

// ListOwn returns the actor's collection.
func (s *Service) ListOwn(ctx context.Context, actor access.Actor, page, perPage int) ([]Bookmark, shared.Pagination, error) {
	if actor.IsPublic() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list bookmarks", access.ErrPublicActorWrite)
	}
	if actor.Disabled() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list bookmarks", access.ErrActorDisabled)
	}
	userID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("bookmarks: actor id: %w", err)
	}
	return s.listFor(ctx, userID, page, perPage)
}

// ListForUser returns another user's collection. Bookmarks never go
// public, so this needs the any-scoped view grant on top of an
// administrative role.
func (s *Service) ListForUser(ctx context.Context, actor access.Actor, userID uuid.UUID, page, perPage int) ([]Bookmark, shared.Pagination, error) {
	if actor.ID == userID.String() {
		return s.ListOwn(ctx, actor, page, perPage)
	}
	probe := access.Subject{Type: "bookmark", OwnerID: userID.String(), Visibility: access.VisibilityPrivate}
	if !actor.IsAdmin() {
		return nil, shared.Pagination{}, access.ErrNotFound
	}
	if err := access.RequirePermission(actor, shared.PermBookmarkView); err != nil {
		return nil, shared.Pagination{}, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, probe); err != nil {
		return nil, shared.Pagination{}, err
	}
	return s.listFor(ctx, userID, page, perPage)
}

func (s *Service) listFor(ctx context.Context, userID uuid.UUID, page, perPage int) ([]Bookmark, shared.Pagination, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Add pins an accommodation the actor can see.
func (s *Service) Add(ctx context.Context, actor access.Actor, accommodationID uuid.UUID, note string) (*Bookmark, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("bookmarks: actor id: %w", err)
	}
	if err := s.catalog.VerifyViewable(ctx, actor, accommodationID); err != nil {
		return nil, err
	}

	b := Bookmark{
		ID:              uuid.New(),
		UserID:          userID,
		AccommodationID: accommodationID,
		Note:            strings.TrimSpace(note),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.guard.RecordMutation(ctx, actor, subject(&b), "create")
	return &b, nil
}

// Remove unpins a bookmark from the actor's collection.
func (s *Service) Remove(ctx context.Context, actor access.Actor, id uuid.UUID) error {
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
