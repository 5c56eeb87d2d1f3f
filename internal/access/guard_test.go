package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturingRecorder struct {
	entries []Entry
}

func (r *capturingRecorder) Record(ctx context.Context, entry Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func newTestGuard(rec *capturingRecorder) *Guard {
	perms := EntityPermissions{
		ViewAny:   "accommodation.view",
		Create:    "accommodation.create",
		UpdateOwn: "accommodation.update.own",
		UpdateAny: "accommodation.update.any",
		DeleteOwn: "accommodation.delete.own",
		DeleteAny: "accommodation.delete.any",
	}
	return NewGuard("accommodation", perms, rec, nil)
}

func TestAuthorizeViewPublicReadIsNotRecorded(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeView(context.Background(), PublicActor(), Subject{ID: "a1", Visibility: VisibilityPublic})
	require.NoError(t, err)
	require.Empty(t, rec.entries)
}

func TestAuthorizeViewPublicActorDeniedAsNotFound(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeView(context.Background(), PublicActor(), Subject{ID: "a1", Visibility: VisibilityPrivate})
	require.True(t, errors.Is(err, ErrNotFound))
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonPublicActorDenied, rec.entries[0].Reason)
	require.Equal(t, PublicActorID, rec.entries[0].ActorID)
	require.False(t, rec.entries[0].Granted)
}

func TestAuthorizeViewAdminOverrideRecorded(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)
	admin := userActor("u1", RoleAdmin)

	err := guard.AuthorizeView(context.Background(), admin, Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonAdminOverride, rec.entries[0].Reason)
	require.True(t, rec.entries[0].Granted)
}

func TestAuthorizeViewOwnerOnPrivateRecorded(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeView(context.Background(), userActor("u1", RoleUser), Subject{ID: "a1", OwnerID: "u1", Visibility: VisibilityDraft})
	require.NoError(t, err)
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonOwnerAccess, rec.entries[0].Reason)
}

func TestAuthorizeViewDeferredPermissionGranted(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)
	moderator := userActor("u1", RoleUser, "accommodation.view")

	err := guard.AuthorizeView(context.Background(), moderator, Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonPermissionGranted, rec.entries[0].Reason)
	require.Equal(t, "accommodation.view", rec.entries[0].Permission)
}

func TestAuthorizeViewDeferredPermissionDeniedAsNotFound(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeView(context.Background(), userActor("u1", RoleUser), Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.True(t, errors.Is(err, ErrNotFound))
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonPermissionDenied, rec.entries[0].Reason)
}

func TestAuthorizeViewUnknownVisibilityRaisesForEveryActor(t *testing.T) {
	actors := []Actor{
		userActor("owner", RoleUser),
		userActor("admin", RoleSuperAdmin),
		userActor("u1", RoleUser, "accommodation.view"),
	}
	for _, actor := range actors {
		rec := &capturingRecorder{}
		guard := newTestGuard(rec)
		err := guard.AuthorizeView(context.Background(), actor, Subject{ID: "a1", OwnerID: "owner", Visibility: "CORRUPT"})
		require.True(t, errors.Is(err, ErrUnknownVisibility), "actor %s", actor.ID)
		require.NotErrorIs(t, err, ErrNotFound)
		require.Len(t, rec.entries, 1)
		require.Equal(t, ReasonUnknownVisibility, rec.entries[0].Reason)
	}
}

func TestAuthorizeViewDisabledActorDeniedEvenOnPublic(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)
	disabled := Actor{Kind: KindUser, ID: "u1", Role: RoleAdmin, Active: false}

	err := guard.AuthorizeView(context.Background(), disabled, Subject{ID: "a1", Visibility: VisibilityPublic})
	require.True(t, errors.Is(err, ErrNotFound))
	require.Len(t, rec.entries, 1)
	require.Equal(t, ReasonActorDisabled, rec.entries[0].Reason)
}

func TestScopeListPinsPublicActorToPublic(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	vis, err := guard.ScopeList(context.Background(), PublicActor(), VisibilityPrivate)
	require.NoError(t, err)
	require.Equal(t, VisibilityPublic, vis)
	require.Len(t, rec.entries, 1)
	require.Equal(t, "PRIVATE", rec.entries[0].Meta["requested_visibility"])
}

func TestScopeListPublicActorWithoutFilterNotRecorded(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	vis, err := guard.ScopeList(context.Background(), PublicActor(), "")
	require.NoError(t, err)
	require.Equal(t, VisibilityPublic, vis)
	require.Empty(t, rec.entries)
}

func TestScopeListPassesThroughForAuthenticatedActor(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})

	vis, err := guard.ScopeList(context.Background(), userActor("u1", RoleUser), VisibilityDraft)
	require.NoError(t, err)
	require.Equal(t, VisibilityDraft, vis)
}

func TestScopeListDisabledActorDenied(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})
	disabled := Actor{Kind: KindUser, ID: "u1", Active: false}

	_, err := guard.ScopeList(context.Background(), disabled, VisibilityPublic)
	require.True(t, errors.Is(err, ErrActorDisabled))
}

func TestAuthorizeCreatePublicActorDistinctDenial(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeCreate(context.Background(), PublicActor())
	require.True(t, errors.Is(err, ErrPublicActorWrite))
	require.False(t, errors.Is(err, ErrForbidden))
	require.Len(t, rec.entries, 1)
}

func TestAuthorizeCreateMissingPermission(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)

	err := guard.AuthorizeCreate(context.Background(), userActor("u1", RoleUser))
	require.True(t, errors.Is(err, ErrForbidden))
	require.Contains(t, err.Error(), "accommodation.create")
}

func TestAuthorizeUpdateOwnerUsesOwnScopedToken(t *testing.T) {
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)
	owner := userActor("u1", RoleUser, "accommodation.update.own")

	err := guard.AuthorizeUpdate(context.Background(), owner, Subject{ID: "a1", OwnerID: "u1", Visibility: VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, rec.entries, 1)
	require.Equal(t, "accommodation.update.own", rec.entries[0].Permission)
	require.True(t, rec.entries[0].Granted)
}

func TestAuthorizeUpdateNonOwnerNeedsAnyScopedToken(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})
	actor := userActor("u1", RoleUser, "accommodation.update.own")

	err := guard.AuthorizeUpdate(context.Background(), actor, Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.True(t, errors.Is(err, ErrForbidden))
	require.Contains(t, err.Error(), "accommodation.update.any")
}

func TestAuthorizeUpdateRequiresViewRights(t *testing.T) {
	// A generic update grant is not enough: the actor must also be able
	// to view the subject.
	rec := &capturingRecorder{}
	guard := newTestGuard(rec)
	actor := userActor("u1", RoleUser, "accommodation.update.any")

	err := guard.AuthorizeUpdate(context.Background(), actor, Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.True(t, errors.Is(err, ErrForbidden))
	last := rec.entries[len(rec.entries)-1]
	require.Equal(t, ReasonPermissionDenied, last.Reason)
	require.Equal(t, "accommodation.view", last.Permission)
}

func TestAuthorizeUpdateUnknownVisibilityRaises(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})
	admin := userActor("u1", RoleAdmin, "accommodation.update.any")

	err := guard.AuthorizeUpdate(context.Background(), admin, Subject{ID: "a1", OwnerID: "u2", Visibility: "???"})
	require.True(t, errors.Is(err, ErrUnknownVisibility))
}

func TestAuthorizeDeleteDisabledActor(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})
	disabled := Actor{Kind: KindUser, ID: "u1", Role: RoleAdmin, Permissions: []string{"accommodation.delete.any"}, Active: false}

	err := guard.AuthorizeDelete(context.Background(), disabled, Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPublic})
	require.True(t, errors.Is(err, ErrActorDisabled))
}

type countingMetrics struct {
	grants, denies int
}

func (m *countingMetrics) AccessDecision(entity string, granted bool, reason Reason) {
	if granted {
		m.grants++
	} else {
		m.denies++
	}
}

func TestGuardReportsDecisionsToMetrics(t *testing.T) {
	guard := newTestGuard(&capturingRecorder{})
	metrics := &countingMetrics{}
	guard.Metrics = metrics

	_ = guard.AuthorizeView(context.Background(), PublicActor(), Subject{ID: "a1", Visibility: VisibilityPrivate})
	_ = guard.AuthorizeView(context.Background(), userActor("u1", RoleAdmin), Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})

	require.Equal(t, 1, metrics.denies)
	require.Equal(t, 1, metrics.grants)
}
