package authz

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/middleware"

	"tenant_service/internal/http_server/middleware/authn"
	resp "tenant_service/internal/lib/api/response"
)

// Policy lists the path patterns reachable without an identity. A pattern
// ending in "/*" matches the prefix and everything below it; any other
// pattern is matched with path.Match.
type Policy struct {
	Public []string
}

// DefaultPolicy opens account endpoints and the API docs.
func DefaultPolicy() Policy {
	return Policy{
		Public: []string{
			"/api/users/*",
			"/swagger/*",
		},
	}
}

func (p Policy) IsPublic(requestPath string) bool {
	for _, pattern := range p.Public {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/") {
				return true
			}
			continue
		}

		if matched, err := path.Match(pattern, requestPath); err == nil && matched {
			return true
		}
	}

	return false
}

// Require rejects requests to non-public paths that carry no identity.
func Require(policy Policy, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(slog.String("component", "middleware/authz"))

		fn := func(w http.ResponseWriter, r *http.Request) {
			if policy.IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := authn.IdentityFrom(r.Context()); !ok {
				log.Info("unauthenticated access rejected",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				resp.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
