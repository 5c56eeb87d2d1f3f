package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/wanderstay/wanderstay/internal/shared"
)

// Middleware gates routes on the permissions the actor resolver already
// loaded into the request context. No database round trip happens here.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the actor holds at least one of the listed permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := normalize(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor := shared.ActorFromContext(r.Context())
			for _, p := range required {
				if actor.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, required)
		})
	}
}

// RequireAll ensures the actor holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	required := normalize(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			for _, p := range required {
				if !actor.HasPermission(p) {
					m.deny(w, r, required)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, required []string) {
	if m.Logger != nil {
		actor := shared.ActorFromContext(r.Context())
		m.Logger.Warn("route permission denied",
			slog.String("actor", actor.AuditID()),
			slog.String("path", r.URL.Path),
			slog.String("required", strings.Join(required, ",")))
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func normalize(perms []string) []string {
	out := make([]string, 0, len(perms))
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
