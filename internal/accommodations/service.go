package accommodations

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
	GetByID(ctx context.Context, id uuid.UUID) (*Accommodation, error)
	GetBySlug(ctx context.Context, slug string) (*Accommodation, error)
	Search(ctx context.Context, filters SearchFilters) ([]Accommodation, int, error)
	Create(ctx context.Context, a Accommodation) error
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Accommodation, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	SetTags(ctx context.Context, id uuid.UUID, tagIDs []uuid.UUID) error
	ListTags(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	RefreshRating(ctx context.Context, id uuid.UUID) error
}

// DestinationPort validates that a destination exists and is usable.
type DestinationPort interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service orchestrates accommodation flows behind the access guard.
type Service struct {
	repo         RepositoryPort
	destinations DestinationPort
	guard        *access.Guard
}

// NewService constructs accommodation service.
func NewService(repo RepositoryPort, destinations DestinationPort, guard *access.Guard) *Service {
	return &Service{repo: repo, destinations: destinations, guard: guard}
}

// GetByID returns one accommodation if the actor may see it. Absent and
// denied read identically as access.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*Accommodation, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(a)); err != nil {
		return nil, err
	}
	return a, nil
}

// GetBySlug resolves an accommodation by its public slug.
func (s *Service) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*Accommodation, error) {
	a, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(a)); err != nil {
		return nil, err
	}
	return a, nil
}

// Subject exposes the access view of an accommodation for collaborating
// modules (bookmarks, reviews) that gate on listing visibility.
func (s *Service) Subject(ctx context.Context, id uuid.UUID) (access.Subject, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.Subject{}, access.ErrNotFound
		}
		return access.Subject{}, err
	}
	return subject(a), nil
}

// VerifyViewable reports whether the actor may see the listing. Reviews
// and bookmarks call it before attaching anything to an accommodation.
func (s *Service) VerifyViewable(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	_, err := s.GetByID(ctx, actor, id)
	return err
}

// Search lists accommodations with visibility scoped to the actor.
func (s *Service) Search(ctx context.Context, actor access.Actor, filters SearchFilters) ([]Accommodation, shared.Pagination, error) {
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

// ListOwn lists the actor's own listings, all visibilities included.
func (s *Service) ListOwn(ctx context.Context, actor access.Actor, page, perPage int) ([]Accommodation, shared.Pagination, error) {
	if actor.IsPublic() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list own accommodations", access.ErrPublicActorWrite)
	}
	ownerID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("accommodations: actor id: %w", err)
	}
	items, total, err := s.repo.Search(ctx, SearchFilters{OwnerID: ownerID, Page: page, PerPage: perPage})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Create inserts a new listing owned by the actor.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*Accommodation, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("accommodations: name required")
	}
	if !input.Type.Known() {
		return nil, fmt.Errorf("accommodations: unsupported type %q", input.Type)
	}
	vis := input.Visibility
	if vis == "" {
		vis = access.VisibilityDraft
	}
	if !vis.Known() {
		return nil, fmt.Errorf("accommodations: unsupported visibility %q", vis)
	}
	if input.PricePerNight < 0 {
		return nil, errors.New("accommodations: price must not be negative")
	}
	ownerID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("accommodations: actor id: %w", err)
	}
	if ok, err := s.destinations.Exists(ctx, input.DestinationID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: destination %s", shared.ErrNotFound, input.DestinationID)
	}

	now := time.Now().UTC()
	a := Accommodation{
		ID:            uuid.New(),
		Slug:          shared.Slugify(name),
		Name:          name,
		Summary:       strings.TrimSpace(input.Summary),
		Type:          input.Type,
		DestinationID: input.DestinationID,
		OwnerID:       ownerID,
		Visibility:    vis,
		PricePerNight: input.PricePerNight,
		Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		CreatedAt:     now,
		CreatedBy:     ownerID,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if a.Visibility != access.VisibilityPublic {
		s.guard.RecordMutation(ctx, actor, subject(&a), "create")
	}
	return &a, nil
}

// Update applies a partial patch. Ownership and provenance cannot change
// through this path; the patch type cannot carry them.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, patch UpdateInput) (*Accommodation, error) {
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

	if patch.Type != nil && !patch.Type.Known() {
		return nil, fmt.Errorf("accommodations: unsupported type %q", *patch.Type)
	}
	if patch.Visibility != nil && !patch.Visibility.Known() {
		return nil, fmt.Errorf("accommodations: unsupported visibility %q", *patch.Visibility)
	}
	if patch.PricePerNight != nil && *patch.PricePerNight < 0 {
		return nil, errors.New("accommodations: price must not be negative")
	}
	if patch.DestinationID != nil {
		if ok, err := s.destinations.Exists(ctx, *patch.DestinationID); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%w: destination %s", shared.ErrNotFound, *patch.DestinationID)
		}
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

// Delete soft deletes a listing, keeping the row with a deletion marker.
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

// HardDelete removes the row entirely. Reserved for administrators; the
// own-scoped delete token never reaches this path.
func (s *Service) HardDelete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if err := access.RequirePermission(actor, shared.PermAccommodationDeleteAny); err != nil {
		return err
	}
	if err := s.guard.AuthorizeDelete(ctx, actor, subject(existing)); err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, id)
}

// SetTags replaces the listing's tag set.
func (s *Service) SetTags(ctx context.Context, actor access.Actor, id uuid.UUID, tagIDs []uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if err := s.guard.AuthorizeUpdate(ctx, actor, subject(existing)); err != nil {
		return err
	}
	return s.repo.SetTags(ctx, id, dedupe(tagIDs))
}

// Tags lists the tag ids attached to a listing the actor may view.
func (s *Service) Tags(ctx context.Context, actor access.Actor, id uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.GetByID(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.ListTags(ctx, id)
}

// RefreshRating recomputes the denormalised rating columns from published
// reviews. Called by the reviews module after moderation changes.
func (s *Service) RefreshRating(ctx context.Context, id uuid.UUID) error {
	return s.repo.RefreshRating(ctx, id)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
