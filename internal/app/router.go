package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wanderstay/wanderstay/internal/accommodations"
	audithttp "github.com/wanderstay/wanderstay/internal/audit/http"
	"github.com/wanderstay/wanderstay/internal/auth"
	"github.com/wanderstay/wanderstay/internal/bookmarks"
	"github.com/wanderstay/wanderstay/internal/destinations"
	"github.com/wanderstay/wanderstay/internal/notifications"
	"github.com/wanderstay/wanderstay/internal/observability"
	"github.com/wanderstay/wanderstay/internal/platform/httpx"
	"github.com/wanderstay/wanderstay/internal/rbac"
	"github.com/wanderstay/wanderstay/internal/reviews"
	"github.com/wanderstay/wanderstay/internal/shared"
	"github.com/wanderstay/wanderstay/internal/tags"
	"github.com/wanderstay/wanderstay/internal/users"
	"github.com/wanderstay/wanderstay/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Middleware     MiddlewareConfig
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	Destinations   *destinations.Handler
	Accommodations *accommodations.Handler
	Tags           *tags.Handler
	Reviews        *reviews.Handler
	Bookmarks      *bookmarks.Handler
	Notifications  *notifications.Handler
	RBACHandler    *rbac.Handler
	AuditHandler   *audithttp.Handler
	JobsHandler    *jobs.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Wanderstay defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Middleware) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Issues (or re-issues) the CSRF token bound to the caller's session.
	// Clients fetch it once and send it back in X-CSRF-Token on mutations.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.Middleware.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/destinations", params.Destinations.MountRoutes)
	r.Route("/accommodations", func(gr chi.Router) {
		params.Accommodations.MountRoutes(gr)
		params.Reviews.MountAccommodationRoutes(gr)
	})
	r.Route("/tags", params.Tags.MountRoutes)
	r.Route("/reviews", params.Reviews.MountRoutes)
	r.Route("/bookmarks", params.Bookmarks.MountRoutes)
	r.Route("/notifications", params.Notifications.MountRoutes)

	r.Route("/admin", func(gr chi.Router) {
		params.RBACHandler.MountRoutes(gr)
		gr.Route("/access-log", func(ar chi.Router) {
			params.AuditHandler.MountRoutes(ar, params.RBACMiddleware)
		})
		if params.JobsHandler != nil {
			gr.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
