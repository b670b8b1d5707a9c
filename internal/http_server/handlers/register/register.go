package register

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
	"tenant_service/internal/lib/verification"
	"tenant_service/internal/models"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=64"`
	Pass     string `json:"password" validate:"required,min=8,max=20"`
}

type Response struct {
	resp.Response
	Message          string `json:"message"`
	UserID           string `json:"user_id"`
	VerificationCode string `json:"verification_code,omitempty"`
}

type Registrar interface {
	Register(ctx context.Context, email, username, pass string) (models.Account, error)
}

// New godoc
// @Summary      Register a new account
// @Description  Creates a disabled account and issues a numeric verification code.
// @Description  The code is queued for email delivery. When `verification.expose_code`
// @Description  is on, it is also returned in the response body.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      Request   true  "Account data"
// @Success      200      {object}  Response
// @Failure      400      {object}  resp.Response  "Validation error"
// @Failure      409      {object}  resp.Response  "Email or username already in use"
// @Failure      500      {object}  resp.Response  "Internal error"
// @Router       /api/users/register [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar Registrar,
	msgSender verification.Publisher,
	exposeCode bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to decode request")

			return
		}

		log.Debug("request body decoded")

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

		acc, err := registrar.Register(ctx, req.Email, req.Username, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrDuplicateEmail) || errors.Is(err, auth.ErrDuplicateUsername) {
				log.Info("registration rejected", sl.Err(err))

				resp.Fail(w, r, http.StatusConflict, err.Error())

				return
			}

			log.Error("failed to register user", sl.Err(err))

			resp.Internal(w, r, err)

			return
		}

		log.Info("user registered", slog.String("user_id", acc.ID))

		var code string
		if acc.VerificationCode != nil && acc.VerificationCodeExpiry != nil {
			code = *acc.VerificationCode
			verification.SendVerificationCode(ctx, log, msgSender, acc.Email, code, *acc.VerificationCodeExpiry)
		}

		res := Response{
			Response: resp.OK(),
			Message:  "User registered successfully. Please check your email for the verification code.",
			UserID:   acc.ID,
		}
		if exposeCode {
			res.VerificationCode = code
		}

		render.JSON(w, r, res)
	}
}
