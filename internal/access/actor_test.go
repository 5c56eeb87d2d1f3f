package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveActorNilInputIsPublic(t *testing.T) {
	actor := ResolveActor(nil)
	require.True(t, actor.IsPublic())
	require.Equal(t, RoleGuest, actor.Role)
	require.Empty(t, actor.Permissions)
	require.Equal(t, PublicActorID, actor.AuditID())
}

func TestResolveActorStripsPrivilegesFromPublicKind(t *testing.T) {
	// Malformed input claiming public kind but carrying privileges must
	// degrade to least privilege, never most.
	in := &Actor{Kind: KindPublic, ID: "u1", Role: RoleSuperAdmin, Permissions: []string{"user.delete.any"}, Active: true}
	actor := ResolveActor(in)
	require.True(t, actor.IsPublic())
	require.Empty(t, actor.ID)
	require.Equal(t, RoleGuest, actor.Role)
	require.Empty(t, actor.Permissions)
}

func TestResolveActorUserWithoutIDIsPublic(t *testing.T) {
	actor := ResolveActor(&Actor{Kind: KindUser, Role: RoleAdmin, Active: true})
	require.True(t, actor.IsPublic())
}

func TestResolveActorUnknownKindIsPublic(t *testing.T) {
	actor := ResolveActor(&Actor{Kind: "SERVICE", ID: "u1", Active: true})
	require.True(t, actor.IsPublic())
}

func TestResolveActorDefaultsRoleForUsers(t *testing.T) {
	actor := ResolveActor(&Actor{Kind: KindUser, ID: "u1", Active: true})
	require.False(t, actor.IsPublic())
	require.Equal(t, RoleUser, actor.Role)
}

func TestHasPermissionExactMembershipOnly(t *testing.T) {
	actor := userActor("u1", RoleUser, "accommodation.update.own")
	require.True(t, actor.HasPermission("accommodation.update.own"))
	require.False(t, actor.HasPermission("accommodation.update.any"))
	require.False(t, actor.HasPermission("accommodation.update"))
	require.False(t, actor.HasPermission(""))
}

func TestDisabledOnlyAppliesToUsers(t *testing.T) {
	require.False(t, PublicActor().Disabled())
	require.True(t, Actor{Kind: KindUser, ID: "u1", Active: false}.Disabled())
	require.False(t, Actor{Kind: KindUser, ID: "u1", Active: true}.Disabled())
}
