package destinations

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
	GetByID(ctx context.Context, id uuid.UUID) (*Destination, error)
	GetBySlug(ctx context.Context, slug string) (*Destination, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Search(ctx context.Context, filters SearchFilters) ([]Destination, int, error)
	Create(ctx context.Context, d Destination) error
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Destination, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error
}

// Service handles destination business logic behind the access guard.
type Service struct {
	repo  RepositoryPort
	guard *access.Guard
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Exists reports whether a live destination is present. Accommodations
// use it to validate the destination binding on create and move.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// GetByID returns one destination if the actor may see it. Absent and
// denied are both access.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*Destination, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(d)); err != nil {
		return nil, err
	}
	return d, nil
}

// GetBySlug resolves a destination by its public slug.
func (s *Service) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*Destination, error) {
	d, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(d)); err != nil {
		return nil, err
	}
	return d, nil
}

// Search lists destinations with the visibility filter scoped to the actor.
func (s *Service) Search(ctx context.Context, actor access.Actor, filters SearchFilters) ([]Destination, shared.Pagination, error) {
	vis, err := s.guard.ScopeList(ctx, actor, filters.Visibility)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	filters.Visibility = vis
	items, total, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Create inserts a new destination.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*Destination, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("destinations: name required")
	}
	vis := input.Visibility
	if vis == "" {
		vis = access.VisibilityDraft
	}
	if !vis.Known() {
		return nil, fmt.Errorf("destinations: unsupported visibility %q", vis)
	}

	now := time.Now().UTC()
	d := Destination{
		ID:         uuid.New(),
		Slug:       shared.Slugify(name),
		Name:       name,
		Summary:    strings.TrimSpace(input.Summary),
		Country:    strings.TrimSpace(input.Country),
		Visibility: vis,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if createdBy, err := uuid.Parse(actor.ID); err == nil {
		d.CreatedBy = createdBy
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	if d.Visibility != access.VisibilityPublic {
		s.guard.RecordMutation(ctx, actor, subject(&d), "create")
	}
	return &d, nil
}

// Update applies a partial patch to an existing destination.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, patch UpdateInput) (*Destination, error) {
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
	if patch.Visibility != nil && !patch.Visibility.Known() {
		return nil, fmt.Errorf("destinations: unsupported visibility %q", *patch.Visibility)
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

// Delete soft deletes a destination, keeping the row with a deletion marker
// and the deleting actor's identity.
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
	return s.repo.SoftDelete(ctx, id, actor.AuditID(), time.Now().UTC())
}
