package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func userActor(id string, role Role, perms ...string) Actor {
	return Actor{Kind: KindUser, ID: id, Role: role, Permissions: perms, Active: true}
}

func TestCanViewPublicEntityVisibleToEveryone(t *testing.T) {
	sub := Subject{Type: "accommodation", ID: "a1", OwnerID: "u2", Visibility: VisibilityPublic}
	actors := []Actor{
		PublicActor(),
		userActor("u1", RoleUser),
		userActor("u2", RoleUser),
		userActor("u3", RoleAdmin),
		userActor("u4", RoleSuperAdmin),
	}
	for _, actor := range actors {
		d := CanView(actor, sub)
		require.True(t, d.CanView, "actor %s should view public entity", actor.AuditID())
		require.Equal(t, ReasonPublicVisible, d.Reason)
	}
}

func TestCanViewDisabledActorAlwaysDenied(t *testing.T) {
	disabled := Actor{Kind: KindUser, ID: "u1", Role: RoleSuperAdmin, Permissions: []string{"accommodation.view"}, Active: false}
	subjects := []Subject{
		{ID: "a1", Visibility: VisibilityPublic},
		{ID: "a2", Visibility: VisibilityPrivate, OwnerID: "u1"},
		{ID: "a3", Visibility: VisibilityDraft},
		{ID: "a4", Visibility: "GLITCHED"},
	}
	for _, sub := range subjects {
		d := CanView(disabled, sub)
		require.False(t, d.CanView, "disabled actor must never view %s", sub.ID)
		require.Equal(t, ReasonActorDisabled, d.Reason)
	}
}

func TestCanViewPublicActorDeniedOnNonPublic(t *testing.T) {
	for _, vis := range []Visibility{VisibilityPrivate, VisibilityDraft} {
		d := CanView(PublicActor(), Subject{ID: "a1", Visibility: vis})
		require.False(t, d.CanView)
		require.Equal(t, ReasonPublicActorDenied, d.Reason)
	}
}

func TestCanViewOwnerSeesOwnEntityRegardlessOfVisibility(t *testing.T) {
	owner := userActor("u1", RoleUser)
	for _, vis := range []Visibility{VisibilityPrivate, VisibilityDraft} {
		d := CanView(owner, Subject{ID: "a1", OwnerID: "u1", Visibility: vis})
		require.True(t, d.CanView)
		require.Equal(t, ReasonOwnerAccess, d.Reason)
	}
}

func TestCanViewAdminOverride(t *testing.T) {
	d := CanView(userActor("u1", RoleAdmin), Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.True(t, d.CanView)
	require.Equal(t, ReasonAdminOverride, d.Reason)
}

func TestCanViewUnknownVisibilityIsDistinctDenial(t *testing.T) {
	d := CanView(userActor("u1", RoleUser), Subject{ID: "a1", OwnerID: "u2", Visibility: "LEGACY"})
	require.False(t, d.CanView)
	require.Equal(t, ReasonUnknownVisibility, d.Reason)
}

func TestCanViewDefersToPermissionGate(t *testing.T) {
	d := CanView(userActor("u1", RoleUser), Subject{ID: "a1", OwnerID: "u2", Visibility: VisibilityPrivate})
	require.False(t, d.CanView)
	require.Equal(t, ReasonPermissionRequired, d.Reason)
}

func TestCanViewIsDeterministic(t *testing.T) {
	actor := userActor("u1", RoleUser)
	sub := Subject{ID: "a1", OwnerID: "u1", Visibility: VisibilityPrivate}
	first := CanView(actor, sub)
	second := CanView(actor, sub)
	require.Equal(t, first, second)
}
