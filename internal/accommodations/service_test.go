package accommodations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]Accommodation
	tags  map[uuid.UUID][]uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Accommodation), tags: make(map[uuid.UUID][]uuid.UUID)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Accommodation, error) {
	a, ok := r.items[id]
	if !ok || a.DeletedAt != nil {
		return nil, shared.ErrNotFound
	}
	out := a
	return &out, nil
}

func (r *memoryRepo) GetBySlug(ctx context.Context, slug string) (*Accommodation, error) {
	for _, a := range r.items {
		if a.Slug == slug && a.DeletedAt == nil {
			out := a
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Search(ctx context.Context, filters SearchFilters) ([]Accommodation, int, error) {
	var items []Accommodation
	for _, a := range r.items {
		if a.DeletedAt != nil {
			continue
		}
		if filters.Visibility != "" && a.Visibility != filters.Visibility {
			continue
		}
		if filters.OwnerID != uuid.Nil && a.OwnerID != filters.OwnerID {
			continue
		}
		items = append(items, a)
	}
	return items, len(items), nil
}

func (r *memoryRepo) Create(ctx context.Context, a Accommodation) error {
	for _, existing := range r.items {
		if existing.Slug == a.Slug {
			return shared.ErrAlreadyExists
		}
	}
	r.items[a.ID] = a
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Accommodation, error) {
	a, ok := r.items[id]
	if !ok || a.DeletedAt != nil {
		return nil, shared.ErrNotFound
	}
	if patch.Name != nil {
		a.Name = *patch.Name
		a.Slug = shared.Slugify(*patch.Name)
	}
	if patch.Summary != nil {
		a.Summary = *patch.Summary
	}
	if patch.Type != nil {
		a.Type = *patch.Type
	}
	if patch.DestinationID != nil {
		a.DestinationID = *patch.DestinationID
	}
	if patch.Visibility != nil {
		a.Visibility = *patch.Visibility
	}
	if patch.PricePerNight != nil {
		a.PricePerNight = *patch.PricePerNight
	}
	if patch.Currency != nil {
		a.Currency = *patch.Currency
	}
	a.UpdatedAt = updatedAt
	r.items[id] = a
	out := a
	return &out, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	a, ok := r.items[id]
	if !ok || a.DeletedAt != nil {
		return shared.ErrNotFound
	}
	a.DeletedAt = &at
	a.DeletedBy = &deletedBy
	r.items[id] = a
	return nil
}

func (r *memoryRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	delete(r.tags, id)
	return nil
}

func (r *memoryRepo) SetTags(ctx context.Context, id uuid.UUID, tagIDs []uuid.UUID) error {
	r.tags[id] = tagIDs
	return nil
}

func (r *memoryRepo) ListTags(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return r.tags[id], nil
}

func (r *memoryRepo) RefreshRating(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubDestinations struct {
	known map[uuid.UUID]bool
}

func (s *stubDestinations) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

type captureRecorder struct {
	entries []access.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry access.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

type fixture struct {
	repo          *memoryRepo
	rec           *captureRecorder
	svc           *Service
	destinationID uuid.UUID
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	rec := &captureRecorder{}
	destinationID := uuid.New()
	guard := access.NewGuard("accommodation", access.EntityPermissions{
		ViewAny:   shared.PermAccommodationView,
		Create:    shared.PermAccommodationCreate,
		UpdateOwn: shared.PermAccommodationUpdateOwn,
		UpdateAny: shared.PermAccommodationUpdateAny,
		DeleteOwn: shared.PermAccommodationDeleteOwn,
		DeleteAny: shared.PermAccommodationDeleteAny,
	}, rec, nil)
	svc := NewService(repo, &stubDestinations{known: map[uuid.UUID]bool{destinationID: true}}, guard)
	return &fixture{repo: repo, rec: rec, svc: svc, destinationID: destinationID}
}

func hostActor(perms ...string) access.Actor {
	return access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Role: access.RoleUser, Active: true, Permissions: perms}
}

func (f *fixture) seed(t *testing.T, owner access.Actor, name string, vis access.Visibility) *Accommodation {
	t.Helper()
	a, err := f.svc.Create(context.Background(), owner, CreateInput{
		Name:          name,
		Type:          TypeCabin,
		DestinationID: f.destinationID,
		Visibility:    vis,
		PricePerNight: 120,
		Currency:      "usd",
	})
	require.NoError(t, err)
	return a
}

func TestCreateOwnerIsTheCreatingActor(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)

	a := f.seed(t, owner, "Lakeside Cabin", access.VisibilityPublic)
	require.Equal(t, owner.ID, a.OwnerID.String())
	require.Equal(t, a.OwnerID, a.CreatedBy)
	require.Equal(t, "USD", a.Currency)
	require.Equal(t, "lakeside-cabin", a.Slug)
}

func TestCreateRejectsUnknownDestination(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)

	_, err := f.svc.Create(context.Background(), owner, CreateInput{
		Name:          "Orphan Lodge",
		Type:          TypeHotel,
		DestinationID: uuid.New(),
	})
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOwnerSeesOwnDraft(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	a := f.seed(t, owner, "Work In Progress", access.VisibilityDraft)

	got, err := f.svc.GetByID(context.Background(), owner, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestStrangerCannotSeeDraftEvenWithNoViewGrant(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	a := f.seed(t, owner, "Quiet Draft", access.VisibilityDraft)

	_, err := f.svc.GetByID(context.Background(), hostActor(), a.ID)
	require.True(t, errors.Is(err, access.ErrNotFound))
}

func TestUpdateOwnerWithOwnTokenSucceeds(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate, shared.PermAccommodationUpdateOwn)
	a := f.seed(t, owner, "Old Name", access.VisibilityPublic)

	name := "New Name"
	updated, err := f.svc.Update(context.Background(), owner, a.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, a.OwnerID, updated.OwnerID, "ownership never changes through update")
	require.Equal(t, a.CreatedAt, updated.CreatedAt)
}

func TestUpdateStrangerWithOnlyOwnTokenGetsForbidden(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	a := f.seed(t, owner, "Somebody Elses", access.VisibilityPublic)

	stranger := hostActor(shared.PermAccommodationUpdateOwn)
	name := "Hijacked"
	_, err := f.svc.Update(context.Background(), stranger, a.ID, UpdateInput{Name: &name})
	require.True(t, errors.Is(err, access.ErrForbidden))
}

func TestUpdateStrangerWithAnyTokenSucceeds(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	a := f.seed(t, owner, "Moderated Listing", access.VisibilityPublic)

	moderator := hostActor(shared.PermAccommodationUpdateAny)
	price := 99.0
	updated, err := f.svc.Update(context.Background(), moderator, a.ID, UpdateInput{PricePerNight: &price})
	require.NoError(t, err)
	require.Equal(t, 99.0, updated.PricePerNight)
	require.Equal(t, a.OwnerID, updated.OwnerID)
}

func TestUpdateDeniedForPublicActor(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	a := f.seed(t, owner, "Read Only", access.VisibilityPublic)

	name := "Defaced"
	_, err := f.svc.Update(context.Background(), access.PublicActor(), a.ID, UpdateInput{Name: &name})
	require.True(t, errors.Is(err, access.ErrPublicActorWrite))
}

func TestListOwnReturnsAllVisibilities(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	f.seed(t, owner, "Published One", access.VisibilityPublic)
	f.seed(t, owner, "Draft One", access.VisibilityDraft)
	f.seed(t, hostActor(shared.PermAccommodationCreate), "Not Mine", access.VisibilityPublic)

	items, paging, err := f.svc.ListOwn(context.Background(), owner, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, paging.Total)
}

func TestSearchPublicActorForcedToPublicScope(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate)
	f.seed(t, owner, "Visible Stay", access.VisibilityPublic)
	f.seed(t, owner, "Hidden Stay", access.VisibilityPrivate)

	items, _, err := f.svc.Search(context.Background(), access.PublicActor(), SearchFilters{Visibility: access.VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, access.VisibilityPublic, items[0].Visibility)
}

func TestSetTagsRequiresUpdateGrant(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate, shared.PermAccommodationUpdateOwn)
	a := f.seed(t, owner, "Tagged Cabin", access.VisibilityPublic)

	tagID := uuid.New()
	require.NoError(t, f.svc.SetTags(context.Background(), owner, a.ID, []uuid.UUID{tagID, tagID}))
	require.Equal(t, []uuid.UUID{tagID}, f.repo.tags[a.ID], "duplicates collapse")

	err := f.svc.SetTags(context.Background(), hostActor(shared.PermAccommodationView), a.ID, []uuid.UUID{tagID})
	require.True(t, errors.Is(err, access.ErrForbidden))
}

func TestDeleteKeepsRowWithDeletionMarker(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate, shared.PermAccommodationDeleteOwn)
	a := f.seed(t, owner, "Short Lived", access.VisibilityPublic)

	require.NoError(t, f.svc.Delete(context.Background(), owner, a.ID))

	stored := f.repo.items[a.ID]
	require.NotNil(t, stored.DeletedAt)
	require.Equal(t, owner.ID, *stored.DeletedBy)
}

func TestHardDeleteRequiresAnyScopedToken(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate, shared.PermAccommodationDeleteOwn)
	a := f.seed(t, owner, "Purge Me", access.VisibilityPublic)

	err := f.svc.HardDelete(context.Background(), owner, a.ID)
	require.True(t, errors.Is(err, access.ErrForbidden), "own-scoped delete cannot purge")

	admin := hostActor(shared.PermAccommodationDeleteAny)
	require.NoError(t, f.svc.HardDelete(context.Background(), admin, a.ID))
	require.NotContains(t, f.repo.items, a.ID)
}

func TestDisabledOwnerDeniedEverywhere(t *testing.T) {
	f := newFixture()
	owner := hostActor(shared.PermAccommodationCreate, shared.PermAccommodationUpdateOwn)
	a := f.seed(t, owner, "Frozen Account Stay", access.VisibilityPublic)

	owner.Active = false
	_, err := f.svc.GetByID(context.Background(), owner, a.ID)
	require.True(t, errors.Is(err, access.ErrNotFound), "disabled reads surface as not found")

	name := "Nope"
	_, err = f.svc.Update(context.Background(), owner, a.ID, UpdateInput{Name: &name})
	require.True(t, errors.Is(err, access.ErrActorDisabled))
}
