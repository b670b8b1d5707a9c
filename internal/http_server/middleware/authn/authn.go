// Package authn turns a bearer token into a request-scoped identity.
//
// The middleware never rejects a request by itself. A missing, malformed or
// expired token simply leaves the request anonymous; the authz middleware
// decides whether anonymous access is acceptable for the route.
package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"tenant_service/internal/lib/jwt"
	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/metrics"
	"tenant_service/internal/models"
)

const bearerPrefix = "Bearer "

type ctxKey int

const (
	identityKey ctxKey = iota
	tenantKey
)

// TokenDecoder is satisfied by *jwt.Codec.
type TokenDecoder interface {
	Decode(token string) (*jwt.Claims, error)
	Live(claims *jwt.Claims) bool
}

// ErrorResponder ends a request that failed for reasons unrelated to the
// token itself.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

func New(log *slog.Logger, decoder TokenDecoder, onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(slog.String("component", "middleware/authn"))

		fn := func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				metrics.TokenChecks.WithLabelValues(metrics.TokenAbsent).Inc()
				next.ServeHTTP(w, r)
				return
			}

			identity, outcome, err := authenticate(decoder, token)
			if err != nil {
				log.Error("failed to authenticate request",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				onError(w, r, err)
				return
			}

			metrics.TokenChecks.WithLabelValues(outcome).Inc()

			if outcome != metrics.TokenAuthenticated {
				log.Debug("request left anonymous",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("outcome", outcome),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		}

		return http.HandlerFunc(fn)
	}
}

// authenticate returns a non-nil error only for failures the caller must
// answer with an error response. Every token problem is reported through
// the outcome instead.
func authenticate(decoder TokenDecoder, token string) (identity models.Identity, outcome string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("authn: panic while building identity: %v", rec)
		}
	}()

	claims, err := decoder.Decode(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenInvalid) {
			return models.Identity{}, metrics.TokenInvalid, nil
		}
		return models.Identity{}, "", err
	}

	if claims == nil || claims.Subject == "" {
		return models.Identity{}, metrics.TokenInvalid, nil
	}

	if !decoder.Live(claims) {
		return models.Identity{}, metrics.TokenExpired, nil
	}

	return claims.Identity(), metrics.TokenAuthenticated, nil
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	return header[len(bearerPrefix):], true
}

// WithIdentity binds the identity and its tenant id to ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tenantKey, identity.TenantID())
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

// TenantID returns the tenant bound by the pipeline, or "" for anonymous
// requests.
func TenantID(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey).(string)
	return tenant
}
