package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"tenant_service/internal/auth"
	resp "tenant_service/internal/lib/api/response"
	sl "tenant_service/internal/lib/logger/sl"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"password" validate:"required,min=8,max=20"`
}

type Response struct {
	resp.Response
	Token string `json:"token"`
	// Expiration is the token lifetime in milliseconds.
	Expiration int64 `json:"expiration"`
}

type Authenticator interface {
	Login(ctx context.Context, email, pass string) (string, time.Duration, error)
}

// New godoc
// @Summary      Log in
// @Description  Exchanges verified credentials for a signed bearer token.
// @Description  An unverified account is rejected before the password is checked.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      Request   true  "Credentials"
// @Success      200      {object}  Response
// @Failure      400      {object}  resp.Response  "Validation error"
// @Failure      401      {object}  resp.Response  "Unknown email or wrong password"
// @Failure      403      {object}  resp.Response  "Email not verified"
// @Failure      500      {object}  resp.Response  "Internal error"
// @Router       /api/users/login [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to decode request")

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		token, ttl, err := authenticator.Login(ctx, req.Email, req.Pass)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidCredentials):
				log.Info("login rejected", sl.Err(err))

				resp.Fail(w, r, http.StatusUnauthorized, err.Error())
			case errors.Is(err, auth.ErrEmailNotVerified):
				log.Info("login rejected", sl.Err(err))

				resp.Fail(w, r, http.StatusForbidden, err.Error())
			default:
				log.Error("failed to login user", sl.Err(err))

				resp.Internal(w, r, err)
			}

			return
		}

		log.Info("user logged in successfully")

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			Token:      token,
			Expiration: ttl.Milliseconds(),
		})
	}
}
