package destinations

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
	items map[uuid.UUID]Destination
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Destination)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Destination, error) {
	d, ok := r.items[id]
	if !ok || d.DeletedAt != nil {
		return nil, shared.ErrNotFound
	}
	out := d
	return &out, nil
}

func (r *memoryRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	d, ok := r.items[id]
	return ok && d.DeletedAt == nil, nil
}

func (r *memoryRepo) GetBySlug(ctx context.Context, slug string) (*Destination, error) {
	for _, d := range r.items {
		if d.Slug == slug && d.DeletedAt == nil {
			out := d
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Search(ctx context.Context, filters SearchFilters) ([]Destination, int, error) {
	var items []Destination
	for _, d := range r.items {
		if d.DeletedAt != nil {
			continue
		}
		if filters.Visibility != "" && d.Visibility != filters.Visibility {
			continue
		}
		items = append(items, d)
	}
	return items, len(items), nil
}

func (r *memoryRepo) Create(ctx context.Context, d Destination) error {
	for _, existing := range r.items {
		if existing.Slug == d.Slug {
			return shared.ErrAlreadyExists
		}
	}
	r.items[d.ID] = d
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*Destination, error) {
	d, ok := r.items[id]
	if !ok || d.DeletedAt != nil {
		return nil, shared.ErrNotFound
	}
	if patch.Name != nil {
		d.Name = *patch.Name
		d.Slug = shared.Slugify(*patch.Name)
	}
	if patch.Summary != nil {
		d.Summary = *patch.Summary
	}
	if patch.Country != nil {
		d.Country = *patch.Country
	}
	if patch.Visibility != nil {
		d.Visibility = *patch.Visibility
	}
	d.UpdatedAt = updatedAt
	r.items[id] = d
	out := d
	return &out, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, at time.Time) error {
	d, ok := r.items[id]
	if !ok || d.DeletedAt != nil {
		return shared.ErrNotFound
	}
	d.DeletedAt = &at
	d.DeletedBy = &deletedBy
	r.items[id] = d
	return nil
}

type captureRecorder struct {
	entries []access.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry access.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func newTestService(repo *memoryRepo, rec access.Recorder) *Service {
	guard := access.NewGuard("destination", access.EntityPermissions{
		ViewAny:   shared.PermDestinationView,
		Create:    shared.PermDestinationCreate,
		UpdateAny: shared.PermDestinationUpdateAny,
		DeleteAny: shared.PermDestinationDeleteAny,
	}, rec, nil)
	return NewService(repo, guard)
}

func adminActor() access.Actor {
	return access.Actor{
		Kind: access.KindUser, ID: uuid.NewString(), Role: access.RoleAdmin, Active: true,
		Permissions: []string{
			shared.PermDestinationView,
			shared.PermDestinationCreate,
			shared.PermDestinationUpdateAny,
			shared.PermDestinationDeleteAny,
		},
	}
}

func seedDestination(t *testing.T, svc *Service, actor access.Actor, name string, vis access.Visibility) *Destination {
	t.Helper()
	d, err := svc.Create(context.Background(), actor, CreateInput{Name: name, Country: "AR", Visibility: vis})
	require.NoError(t, err)
	return d
}

func TestGetByIDPublicVisibleToPublicActor(t *testing.T) {
	repo := newMemoryRepo()
	rec := &captureRecorder{}
	svc := newTestService(repo, rec)
	d := seedDestination(t, svc, adminActor(), "El Chaltén", access.VisibilityPublic)
	rec.entries = nil

	got, err := svc.GetByID(context.Background(), access.PublicActor(), d.ID)
	require.NoError(t, err)
	require.Equal(t, "el-chalten", got.Slug)
	require.Empty(t, rec.entries, "public reads must not be recorded")
}

func TestGetByIDPrivateHiddenFromPublicActor(t *testing.T) {
	repo := newMemoryRepo()
	rec := &captureRecorder{}
	svc := newTestService(repo, rec)
	d := seedDestination(t, svc, adminActor(), "Staff Retreat", access.VisibilityPrivate)
	rec.entries = nil

	_, err := svc.GetByID(context.Background(), access.PublicActor(), d.ID)
	require.True(t, errors.Is(err, access.ErrNotFound))
	require.Len(t, rec.entries, 1)
	require.Equal(t, access.ReasonPublicActorDenied, rec.entries[0].Reason)
}

func TestGetByIDAbsentAndDeniedAreIndistinguishable(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureRecorder{})
	d := seedDestination(t, svc, adminActor(), "Hidden Valley", access.VisibilityPrivate)

	_, errAbsent := svc.GetByID(context.Background(), access.PublicActor(), uuid.New())
	_, errDenied := svc.GetByID(context.Background(), access.PublicActor(), d.ID)
	require.True(t, errors.Is(errAbsent, access.ErrNotFound))
	require.True(t, errors.Is(errDenied, access.ErrNotFound))
}

func TestSearchPublicActorNeverSeesNonPublic(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureRecorder{})
	admin := adminActor()
	seedDestination(t, svc, admin, "Mendoza", access.VisibilityPublic)
	seedDestination(t, svc, admin, "Backoffice Spot", access.VisibilityPrivate)
	seedDestination(t, svc, admin, "Unfinished", access.VisibilityDraft)

	items, _, err := svc.Search(context.Background(), access.PublicActor(), SearchFilters{Visibility: access.VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, access.VisibilityPublic, items[0].Visibility)
}

func TestCreateDeniedForPublicActor(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &captureRecorder{})

	_, err := svc.Create(context.Background(), access.PublicActor(), CreateInput{Name: "Ushuaia"})
	require.True(t, errors.Is(err, access.ErrPublicActorWrite))
}

func TestCreateDefaultsToDraftAndRecordsMutation(t *testing.T) {
	rec := &captureRecorder{}
	svc := newTestService(newMemoryRepo(), rec)

	d, err := svc.Create(context.Background(), adminActor(), CreateInput{Name: "Ushuaia"})
	require.NoError(t, err)
	require.Equal(t, access.VisibilityDraft, d.Visibility)
	require.NotEmpty(t, rec.entries)
	last := rec.entries[len(rec.entries)-1]
	require.True(t, last.Granted)
	require.Equal(t, "create", last.Meta["action"])
}

func TestUpdateUnknownVisibilityInStorageRaises(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureRecorder{})
	d := seedDestination(t, svc, adminActor(), "Salta", access.VisibilityPublic)

	// Simulate an unmigrated row.
	broken := repo.items[d.ID]
	broken.Visibility = "LEGACY_LISTED"
	repo.items[d.ID] = broken

	name := "Salta Norte"
	_, err := svc.Update(context.Background(), adminActor(), d.ID, UpdateInput{Name: &name})
	require.True(t, errors.Is(err, access.ErrUnknownVisibility))
}

func TestDeleteKeepsRowWithDeletionMarker(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &captureRecorder{})
	admin := adminActor()
	d := seedDestination(t, svc, admin, "Tilcara", access.VisibilityPublic)

	require.NoError(t, svc.Delete(context.Background(), admin, d.ID))

	stored := repo.items[d.ID]
	require.NotNil(t, stored.DeletedAt)
	require.Equal(t, admin.ID, *stored.DeletedBy)

	_, err := svc.GetByID(context.Background(), admin, d.ID)
	require.True(t, errors.Is(err, access.ErrNotFound))
}
