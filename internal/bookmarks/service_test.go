package bookmarks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]Bookmark
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Bookmark)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Bookmark, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := b
	return &out, nil
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]Bookmark, int, error) {
	var items []Bookmark
	for _, b := range r.items {
		if b.UserID == userID {
			items = append(items, b)
		}
	}
	return items, len(items), nil
}

func (r *memoryRepo) Create(ctx context.Context, b Bookmark) error {
	for _, existing := range r.items {
		if existing.UserID == b.UserID && existing.AccommodationID == b.AccommodationID {
			return shared.ErrAlreadyExists
		}
	}
	r.items[b.ID] = b
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type stubCatalog struct {
	visible map[uuid.UUID]bool
}

func (c *stubCatalog) VerifyViewable(ctx context.Context, actor access.Actor, accommodationID uuid.UUID) error {
	if !c.visible[accommodationID] {
		return access.ErrNotFound
	}
	return nil
}

type captureRecorder struct {
	entries []access.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry access.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

type fixture struct {
	repo            *memoryRepo
	svc             *Service
	accommodationID uuid.UUID
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	accommodationID := uuid.New()
	guard := access.NewGuard("bookmark", access.EntityPermissions{
		ViewAny:   shared.PermBookmarkView,
		Create:    shared.PermBookmarkCreate,
		DeleteOwn: shared.PermBookmarkDelete,
	}, &captureRecorder{}, nil)
	catalog := &stubCatalog{visible: map[uuid.UUID]bool{accommodationID: true}}
	return &fixture{repo: repo, svc: NewService(repo, catalog, guard), accommodationID: accommodationID}
}

func memberActor(perms ...string) access.Actor {
	return access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Role: access.RoleUser, Active: true, Permissions: perms}
}

func TestAddPinsVisibleListing(t *testing.T) {
	f := newFixture()
	member := memberActor(shared.PermBookmarkCreate)

	b, err := f.svc.Add(context.Background(), member, f.accommodationID, "next summer")
	require.NoError(t, err)
	require.Equal(t, member.ID, b.UserID.String())
	require.Equal(t, "next summer", b.Note)
}

func TestAddSameListingTwiceConflicts(t *testing.T) {
	f := newFixture()
	member := memberActor(shared.PermBookmarkCreate)

	_, err := f.svc.Add(context.Background(), member, f.accommodationID, "")
	require.NoError(t, err)
	_, err = f.svc.Add(context.Background(), member, f.accommodationID, "")
	require.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestAddHiddenListingReadsNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Add(context.Background(), memberActor(shared.PermBookmarkCreate), uuid.New(), "")
	require.True(t, errors.Is(err, access.ErrNotFound))
}

func TestAddDeniedForPublicActor(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Add(context.Background(), access.PublicActor(), f.accommodationID, "")
	require.True(t, errors.Is(err, access.ErrPublicActorWrite))
}

func TestListOwnScopedToActor(t *testing.T) {
	f := newFixture()
	a := memberActor(shared.PermBookmarkCreate)
	b := memberActor(shared.PermBookmarkCreate)
	_, err := f.svc.Add(context.Background(), a, f.accommodationID, "")
	require.NoError(t, err)
	_, err = f.svc.Add(context.Background(), b, f.accommodationID, "")
	require.NoError(t, err)

	items, paging, err := f.svc.ListOwn(context.Background(), a, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, a.ID, items[0].UserID.String())
	require.Equal(t, 1, paging.Total)
}

func TestListForUserNeedsAdminAndGrant(t *testing.T) {
	f := newFixture()
	owner := memberActor(shared.PermBookmarkCreate)
	_, err := f.svc.Add(context.Background(), owner, f.accommodationID, "")
	require.NoError(t, err)
	ownerID := uuid.MustParse(owner.ID)

	// A plain member cannot browse someone else's collection.
	_, _, err = f.svc.ListForUser(context.Background(), memberActor(shared.PermBookmarkView), ownerID, 1, 20)
	require.True(t, errors.Is(err, access.ErrNotFound))

	// An admin without the grant is refused too.
	admin := access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Role: access.RoleAdmin, Active: true}
	_, _, err = f.svc.ListForUser(context.Background(), admin, ownerID, 1, 20)
	require.True(t, errors.Is(err, access.ErrForbidden))

	admin.Permissions = []string{shared.PermBookmarkView}
	items, _, err := f.svc.ListForUser(context.Background(), admin, ownerID, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRemoveOnlyByOwner(t *testing.T) {
	f := newFixture()
	owner := memberActor(shared.PermBookmarkCreate, shared.PermBookmarkDelete)
	b, err := f.svc.Add(context.Background(), owner, f.accommodationID, "")
	require.NoError(t, err)

	err = f.svc.Remove(context.Background(), memberActor(shared.PermBookmarkDelete), b.ID)
	require.True(t, errors.Is(err, access.ErrForbidden))

	require.NoError(t, f.svc.Remove(context.Background(), owner, b.ID))
	require.NotContains(t, f.repo.items, b.ID)
}
