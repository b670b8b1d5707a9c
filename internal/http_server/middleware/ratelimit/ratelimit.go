package ratelimit

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"tenant_service/internal/http_server/middleware/authn"
	resp "tenant_service/internal/lib/api/response"
)

func Login() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func Register() func(http.Handler) http.Handler {
	return limitByIP(5, time.Hour)
}

func Verify() func(http.Handler) http.Handler {
	return limitByIP(10, 10*time.Minute)
}

func ResendVerificationCode() func(http.Handler) http.Handler {
	return limitByIP(3, time.Hour)
}

// Products limits each tenant separately. Anonymous requests fall back to
// the client IP so they cannot share one bucket.
func Products() func(http.Handler) http.Handler {
	return httprate.Limit(
		300,
		time.Minute,
		httprate.WithKeyFuncs(byTenant),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func byTenant(r *http.Request) (string, error) {
	if tenant := authn.TenantID(r.Context()); tenant != "" {
		return "tenant:" + tenant, nil
	}

	return httprate.KeyByRealIP(r)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	resp.Fail(w, r, http.StatusTooManyRequests, "Too many requests")
}
