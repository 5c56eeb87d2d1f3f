package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

func requestWithActor(t *testing.T, actor access.Actor) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
	return req.WithContext(shared.ContextWithActor(req.Context(), actor))
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireAnyPassesWithOneGrant(t *testing.T) {
	next, called := okHandler()
	mw := Middleware{}.RequireAny(shared.PermRolesView, shared.PermRolesEdit)

	actor := access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Active: true, Permissions: []string{shared.PermRolesView}}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, requestWithActor(t, actor))

	require.True(t, *called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyDeniesPublicActor(t *testing.T) {
	next, called := okHandler()
	mw := Middleware{}.RequireAny(shared.PermRolesView)

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, requestWithActor(t, access.PublicActor()))

	require.False(t, *called)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllNeedsEveryGrant(t *testing.T) {
	next, called := okHandler()
	mw := Middleware{}.RequireAll(shared.PermRolesView, shared.PermRolesEdit)

	actor := access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Active: true, Permissions: []string{shared.PermRolesView}}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, requestWithActor(t, actor))
	require.False(t, *called)
	require.Equal(t, http.StatusForbidden, rec.Code)

	actor.Permissions = []string{shared.PermRolesView, shared.PermRolesEdit}
	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, requestWithActor(t, actor))
	require.True(t, *called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyWithNoTokensPassesThrough(t *testing.T) {
	next, called := okHandler()
	mw := Middleware{}.RequireAny()

	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, requestWithActor(t, access.PublicActor()))
	require.True(t, *called)
}
