package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]User)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *memoryRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.items {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, page, perPage int) ([]User, int, error) {
	var items []User
	for _, u := range r.items {
		items = append(items, u)
	}
	return items, len(items), nil
}

func (r *memoryRepo) Create(ctx context.Context, u User) error {
	for _, existing := range r.items {
		if existing.Email == u.Email {
			return shared.ErrAlreadyExists
		}
	}
	r.items[u.ID] = u
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, patch UpdateInput, updatedAt time.Time) (*User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	u.UpdatedAt = updatedAt
	r.items[id] = u
	out := u
	return &out, nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error {
	u, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Active = active
	u.UpdatedAt = updatedAt
	r.items[id] = u
	return nil
}

func (r *memoryRepo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	u, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = updatedAt
	r.items[id] = u
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type captureRecorder struct {
	entries []access.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry access.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	guard := access.NewGuard("user", access.EntityPermissions{
		ViewAny:   shared.PermUsersView,
		Create:    shared.PermUsersCreate,
		UpdateOwn: shared.PermUsersUpdateOwn,
		UpdateAny: shared.PermUsersUpdateAny,
		DeleteAny: shared.PermUsersDeleteAny,
	}, &captureRecorder{}, nil)
	return NewService(repo, guard)
}

func adminActorFor(id uuid.UUID) access.Actor {
	return access.Actor{
		Kind: access.KindUser, ID: id.String(), Role: access.RoleAdmin, Active: true,
		Permissions: shared.CoreScopes(),
	}
}

func provision(t *testing.T, svc *Service, admin access.Actor, email string) *User {
	t.Helper()
	u, err := svc.Create(context.Background(), admin, CreateInput{Email: email, Name: "Someone", Password: "correct-horse"})
	require.NoError(t, err)
	return u
}

func TestCreateHashesPasswordAndNormalisesEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	admin := adminActorFor(uuid.New())

	u, err := svc.Create(context.Background(), admin, CreateInput{Email: "  Traveler@Example.COM ", Name: "Trav", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "traveler@example.com", u.Email)
	require.Equal(t, access.RoleUser, u.Role)
	require.True(t, u.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))
}

func TestGetByIDSelfAlwaysAllowed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	u := provision(t, svc, adminActorFor(uuid.New()), "self@example.com")

	self := access.Actor{Kind: access.KindUser, ID: u.ID.String(), Role: access.RoleUser, Active: true}
	got, err := svc.GetByID(context.Background(), self, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}

func TestGetByIDStrangerReadsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	u := provision(t, svc, adminActorFor(uuid.New()), "target@example.com")

	stranger := access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Role: access.RoleUser, Active: true}
	_, err := svc.GetByID(context.Background(), stranger, u.ID)
	require.True(t, errors.Is(err, access.ErrNotFound))

	_, err = svc.GetByID(context.Background(), access.PublicActor(), u.ID)
	require.True(t, errors.Is(err, access.ErrNotFound))
}

func TestSelfDeactivationBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	adminID := uuid.New()
	admin := adminActorFor(adminID)
	repo.items[adminID] = User{ID: adminID, Email: "admin@example.com", Role: access.RoleAdmin, Active: true}

	err := svc.SetActive(context.Background(), admin, adminID, false)
	require.True(t, errors.Is(err, shared.ErrSelfAction))
	require.True(t, repo.items[adminID].Active, "activation state unchanged")
}

func TestDeactivateOtherAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	admin := adminActorFor(uuid.New())
	u := provision(t, svc, admin, "member@example.com")

	require.NoError(t, svc.SetActive(context.Background(), admin, u.ID, false))
	require.False(t, repo.items[u.ID].Active)
}

func TestSelfDeleteBlocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	adminID := uuid.New()
	admin := adminActorFor(adminID)
	repo.items[adminID] = User{ID: adminID, Email: "admin@example.com", Role: access.RoleAdmin, Active: true}

	err := svc.Delete(context.Background(), admin, adminID)
	require.True(t, errors.Is(err, shared.ErrSelfAction))
	require.Contains(t, repo.items, adminID)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	u := provision(t, svc, adminActorFor(uuid.New()), "member@example.com")
	self := access.Actor{Kind: access.KindUser, ID: u.ID.String(), Role: access.RoleUser, Active: true}

	err := svc.ChangePassword(context.Background(), self, u.ID, "wrong-guess", "brand-new-pass")
	require.True(t, errors.Is(err, shared.ErrInvalidCredentials))

	require.NoError(t, svc.ChangePassword(context.Background(), self, u.ID, "correct-horse", "brand-new-pass"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.items[u.ID].PasswordHash), []byte("brand-new-pass")))
}

func TestChangePasswordOnlyForOwnAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	admin := adminActorFor(uuid.New())
	u := provision(t, svc, admin, "member@example.com")

	err := svc.ChangePassword(context.Background(), admin, u.ID, "correct-horse", "hijacked-pass")
	require.True(t, errors.Is(err, access.ErrForbidden))
}

func TestUpdateProfileWithOwnGrant(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	u := provision(t, svc, adminActorFor(uuid.New()), "member@example.com")
	self := access.Actor{
		Kind: access.KindUser, ID: u.ID.String(), Role: access.RoleUser, Active: true,
		Permissions: []string{shared.PermUsersUpdateOwn},
	}

	name := "Renamed"
	updated, err := svc.Update(context.Background(), self, u.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}
