package reviews

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
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ListByAccommodation(ctx context.Context, accommodationID uuid.UUID, filter ListFilter) ([]Review, int, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, page, perPage int) ([]Review, int, error)
	Create(ctx context.Context, r Review) error
	Update(ctx context.Context, id uuid.UUID, patch UpdateInput, status Status, updatedAt time.Time) (*Review, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, moderatedBy uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error
}

// ListFilter narrows a per-accommodation review listing. Statuses limits
// the moderation states returned; ViewerID additionally admits the
// viewer's own reviews regardless of state.
type ListFilter struct {
	Statuses []Status
	ViewerID uuid.UUID
	Page     int
	PerPage  int
}

// CatalogPort is the slice of the accommodations module reviews depend on.
type CatalogPort interface {
	VerifyViewable(ctx context.Context, actor access.Actor, accommodationID uuid.UUID) error
	RefreshRating(ctx context.Context, accommodationID uuid.UUID) error
}

// IdempotencyPort deduplicates review submissions by client key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Service orchestrates review flows: submission, moderation and the
// denormalised rating refresh on the parent accommodation.
type Service struct {
	repo        RepositoryPort
	catalog     CatalogPort
	idempotency IdempotencyPort
	guard       *access.Guard
}

// NewService constructs review service. The idempotency port may be nil;
// submissions without a client key skip deduplication either way.
func NewService(repo RepositoryPort, catalog CatalogPort, idempotency IdempotencyPort, guard *access.Guard) *Service {
	return &Service{repo: repo, catalog: catalog, idempotency: idempotency, guard: guard}
}

// GetByID returns one review if the actor may see it.
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*Review, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := s.guard.AuthorizeView(ctx, actor, subject(r)); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByAccommodation returns reviews for a listing the actor can see.
// Moderators get every state; everyone else gets published reviews plus
// their own submissions.
func (s *Service) ListByAccommodation(ctx context.Context, actor access.Actor, accommodationID uuid.UUID, page, perPage int) ([]Review, shared.Pagination, error) {
	if actor.Disabled() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list reviews", access.ErrActorDisabled)
	}
	if err := s.catalog.VerifyViewable(ctx, actor, accommodationID); err != nil {
		return nil, shared.Pagination{}, err
	}

	filter := ListFilter{Statuses: []Status{StatusPublished}, Page: page, PerPage: perPage}
	if actor.HasPermission(shared.PermReviewModerate) {
		filter.Statuses = nil
	} else if !actor.IsPublic() {
		if viewerID, err := uuid.Parse(actor.ID); err == nil {
			filter.ViewerID = viewerID
		}
	}

	items, total, err := s.repo.ListByAccommodation(ctx, accommodationID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// ListOwn returns the actor's own reviews in every moderation state.
func (s *Service) ListOwn(ctx context.Context, actor access.Actor, page, perPage int) ([]Review, shared.Pagination, error) {
	if actor.IsPublic() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list own reviews", access.ErrPublicActorWrite)
	}
	if actor.Disabled() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: list own reviews", access.ErrActorDisabled)
	}
	authorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("reviews: actor id: %w", err)
	}
	items, total, err := s.repo.ListByAuthor(ctx, authorID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Create submits a review for moderation. The accommodation must be
// visible to the author, and each author reviews a listing at most once.
func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*Review, error) {
	if err := s.guard.AuthorizeCreate(ctx, actor); err != nil {
		return nil, err
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.New("reviews: rating must be between 1 and 5")
	}
	authorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("reviews: actor id: %w", err)
	}
	if err := s.catalog.VerifyViewable(ctx, actor, input.AccommodationID); err != nil {
		return nil, err
	}
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "reviews"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: review submission", shared.ErrAlreadyExists)
			}
			return nil, err
		}
	}

	now := time.Now().UTC()
	r := Review{
		ID:              uuid.New(),
		AccommodationID: input.AccommodationID,
		AuthorID:        authorID,
		Rating:          input.Rating,
		Title:           strings.TrimSpace(input.Title),
		Body:            strings.TrimSpace(input.Body),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.guard.RecordMutation(ctx, actor, subject(&r), "create")
	return &r, nil
}

// Update lets the author revise its review. Any edit sends the review
// back through moderation.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, patch UpdateInput) (*Review, error) {
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
	if patch.Rating != nil && (*patch.Rating < 1 || *patch.Rating > 5) {
		return nil, errors.New("reviews: rating must be between 1 and 5")
	}

	wasPublished := existing.Status == StatusPublished
	updated, err := s.repo.Update(ctx, id, patch, StatusPending, time.Now().UTC())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if wasPublished {
		if err := s.catalog.RefreshRating(ctx, existing.AccommodationID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Moderate publishes or rejects a pending review and refreshes the
// accommodation's aggregate rating.
func (s *Service) Moderate(ctx context.Context, actor access.Actor, id uuid.UUID, status Status) (*Review, error) {
	if status != StatusPublished && status != StatusRejected {
		return nil, fmt.Errorf("reviews: cannot moderate to %q", status)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	if err := access.RequirePermission(actor, shared.PermReviewModerate); err != nil {
		return nil, err
	}
	moderatorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("reviews: actor id: %w", err)
	}

	if err := s.repo.SetStatus(ctx, id, status, moderatorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.catalog.RefreshRating(ctx, existing.AccommodationID); err != nil {
		return nil, err
	}
	s.guard.RecordMutation(ctx, actor, subject(existing), "moderate:"+string(status))
	return s.repo.GetByID(ctx, id)
}

// Delete soft deletes a review and refreshes the aggregate when the
// review counted towards it.
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
	if err := s.repo.SoftDelete(ctx, id, actor.AuditID(), time.Now().UTC()); err != nil {
		return err
	}
	if existing.Status == StatusPublished {
		return s.catalog.RefreshRating(ctx, existing.AccommodationID)
	}
	return nil
}
