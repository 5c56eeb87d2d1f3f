package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequirePermissionGranted(t *testing.T) {
	actor := userActor("u1", RoleUser, "review.create")
	require.NoError(t, RequirePermission(actor, "review.create"))
}

func TestRequirePermissionDeniedCarriesPermissionName(t *testing.T) {
	actor := userActor("u1", RoleUser)
	err := RequirePermission(actor, "review.create")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrForbidden))
	require.Contains(t, err.Error(), "review.create")
}

func TestRequirePermissionDisabledActorWinsOverGrantedToken(t *testing.T) {
	actor := Actor{Kind: KindUser, ID: "u1", Role: RoleAdmin, Permissions: []string{"review.create"}, Active: false}
	err := RequirePermission(actor, "review.create")
	require.True(t, errors.Is(err, ErrActorDisabled))
}

func TestRequirePermissionPublicActorDistinctError(t *testing.T) {
	err := RequirePermission(PublicActor(), "review.create")
	require.True(t, errors.Is(err, ErrPublicActorWrite))
	require.False(t, errors.Is(err, ErrForbidden))
}
