package tags

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
	GetByID(ctx context.Context, id uuid.UUID) (*Tag, error)
	GetBySlug(ctx context.Context, slug string) (*Tag, error)
	List(ctx context.Context, category string, page, perPage int) ([]Tag, int, error)
	Create(ctx context.Context, t Tag) error
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages the curated tag catalog. Every tag is a PUBLIC subject,
// so reads bypass visibility classification entirely; only writes pass
// through the guard.
type Service struct {
	repo  RepositoryPort
	guard *access.Guard
}

// NewService constructs tag service.
func NewService(repo RepositoryPort, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// GetByID returns one tag.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*Tag, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// GetBySlug resolves a tag by slug.
func (s *Service) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*Tag, error) {
	t, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(t)); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the catalog, optionally filtered by category.
func (s *Service) List(ctx context.Context, actor access.Actor, category string, page, perPage int) ([]Tag, shared.Pagination, error) {
	if _, err := s.guard.ScopeList(ctx, actor, access.VisibilityPublic); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.List(ctx, strings.TrimSpace(category), page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Create inserts a tag.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*Tag, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("tags: name required")
	}
	createdBy, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("tags: actor id: %w", err)
	}

	now := time.Now().UTC()
	t := Tag{
		ID:        uuid.New(),
		Slug:      shared.Slugify(name),
		Name:      name,
		Category:  strings.TrimSpace(input.Category),
		CreatedAt: now,
		CreatedBy: createdBy,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.guard.RecordMutation(ctx, actor, subject(&t), "create")
	return &t, nil
}

// Update applies a partial patch.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, patch UpdateInput) (*Tag, error) {
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
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.New("tags: name must not be blank")
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

// Delete removes a tag. Join rows referencing it are dropped by the
// repository in the same transaction.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
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

func subject(t *Tag) access.Subject {
	return access.Subject{
		Type:       "tag",
		ID:         t.ID.String(),
		Visibility: access.VisibilityPublic,
	}
}
