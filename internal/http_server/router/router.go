package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "tenant_service/docs"
	"tenant_service/internal/http_server/handlers/login"
	"tenant_service/internal/http_server/handlers/products"
	"tenant_service/internal/http_server/handlers/register"
	"tenant_service/internal/http_server/handlers/resend"
	"tenant_service/internal/http_server/handlers/verify"
	"tenant_service/internal/http_server/middleware/authn"
	"tenant_service/internal/http_server/middleware/authz"
	mwLogger "tenant_service/internal/http_server/middleware/logger"
	"tenant_service/internal/http_server/middleware/ratelimit"
	resp "tenant_service/internal/lib/api/response"
	"tenant_service/internal/lib/verification"
	"tenant_service/internal/metrics"
)

type AccountService interface {
	register.Registrar
	verify.Verifier
	login.Authenticator
	resend.CodeResender
}

type Deps struct {
	Log        *slog.Logger
	Accounts   AccountService
	Products   products.Service
	Tokens     authn.TokenDecoder
	Cipher     products.Cipher
	Publisher  verification.Publisher
	ExposeCode bool
	// RateLimit is off in tests that fire many requests from one address.
	RateLimit bool
}

func New(d Deps) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authn.New(d.Log, d.Tokens, resp.Internal))
	r.Use(mwLogger.New(d.Log))
	r.Use(metrics.Middleware)
	r.Use(authz.Require(authz.DefaultPolicy(), d.Log))

	limit := func(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
		if !d.RateLimit {
			return func(next http.Handler) http.Handler { return next }
		}
		return mw
	}

	r.Route("/api/users", func(r chi.Router) {
		r.With(limit(ratelimit.Register())).Post("/register",
			register.New(d.Log, validate, d.Accounts, d.Publisher, d.ExposeCode),
		)
		r.With(limit(ratelimit.Login())).Post("/login",
			login.New(d.Log, validate, d.Accounts),
		)
		r.With(limit(ratelimit.Verify())).Post("/verify",
			verify.New(d.Log, validate, d.Accounts),
		)
		r.With(limit(ratelimit.ResendVerificationCode())).Post("/verify/resend",
			resend.New(d.Log, validate, d.Accounts, d.Publisher, d.ExposeCode),
		)
	})

	r.With(limit(ratelimit.Products())).Mount("/api/products",
		products.New(d.Log, validate, d.Products, d.Cipher).Routes(),
	)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
