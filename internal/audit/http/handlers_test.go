package audithttp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/audit"
	audithttp "github.com/wanderstay/wanderstay/internal/audit/http"
	"github.com/wanderstay/wanderstay/internal/rbac"
	"github.com/wanderstay/wanderstay/internal/shared"
)

type stubTimeline struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	lastFilters audit.TimelineFilters
}

func (s *stubTimeline) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimeline) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func newRouter(t *testing.T, svc *stubTimeline) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := audithttp.NewHandler(logger, svc, audit.CSVExporter{})
	router := chi.NewRouter()
	handler.MountRoutes(router, rbac.Middleware{})
	return router
}

func doGet(router *chi.Mux, path string, actor access.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(), actor))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func reviewer() access.Actor {
	return access.Actor{
		Kind:        access.KindUser,
		ID:          uuid.NewString(),
		Role:        access.RoleAdmin,
		Active:      true,
		Permissions: []string{shared.PermAccessLogView},
	}
}

func TestTimelineRequiresGrant(t *testing.T) {
	router := newRouter(t, &stubTimeline{})

	res := doGet(router, "/", access.PublicActor())
	require.Equal(t, http.StatusForbidden, res.Code)

	member := access.Actor{Kind: access.KindUser, ID: uuid.NewString(), Active: true}
	res = doGet(router, "/", member)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestTimelineReturnsRows(t *testing.T) {
	svc := &stubTimeline{result: audit.Result{
		Rows: []audit.TimelineRow{{
			At:      time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
			Actor:   "u1",
			Entity:  "accommodation",
			Granted: false,
			Reason:  "NO_PERMISSION",
		}},
		Paging: audit.PagingInfo{Page: 1, PageSize: 20},
	}}
	router := newRouter(t, svc)

	res := doGet(router, "/?actor=u1&granted=false", reviewer())
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Rows []struct {
			Actor  string `json:"actor"`
			Reason string `json:"reason"`
		} `json:"rows"`
		Paging struct {
			Page int `json:"page"`
		} `json:"paging"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Len(t, payload.Rows, 1)
	require.Equal(t, "u1", payload.Rows[0].Actor)
	require.Equal(t, "NO_PERMISSION", payload.Rows[0].Reason)
	require.Equal(t, 1, payload.Paging.Page)

	require.Equal(t, "u1", svc.lastFilters.Actor)
	require.NotNil(t, svc.lastFilters.Granted)
	require.False(t, *svc.lastFilters.Granted)
}

func TestTimelineRejectsBadRange(t *testing.T) {
	router := newRouter(t, &stubTimeline{})

	res := doGet(router, "/?from=2026-03-10&to=2026-03-01", reviewer())
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = doGet(router, "/?from=not-a-date", reviewer())
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestExportWritesCSV(t *testing.T) {
	svc := &stubTimeline{exportRows: []audit.TimelineRow{{
		At:      time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Actor:   "u1",
		Entity:  "review",
		Granted: true,
		Reason:  "OWNER",
	}}}
	router := newRouter(t, svc)

	res := doGet(router, "/export.csv", reviewer())
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "text/csv; charset=utf-8", res.Header().Get("Content-Type"))
	require.Contains(t, res.Header().Get("Content-Disposition"), "access-trail.csv")
	require.Contains(t, res.Body.String(), "u1")
	require.Contains(t, res.Body.String(), "OWNER")
}
