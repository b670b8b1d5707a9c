package verify

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
	"tenant_service/internal/models"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"verificationCode" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type Verifier interface {
	Verify(ctx context.Context, email, code string) (models.Account, error)
}

// lifecycle errors answered with 400 and their own message
var rejections = []error{
	auth.ErrAccountNotFound,
	auth.ErrAlreadyVerified,
	auth.ErrCodeExpired,
	auth.ErrInvalidCode,
}

// New godoc
// @Summary      Verify an account
// @Description  Enables the account when the code matches and has not expired.
// @Description  Checks run in order: unknown email, already verified, expired code, wrong code.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      Request   true  "Email and verification code"
// @Success      200      {object}  Response
// @Failure      400      {object}  resp.Response  "Validation or verification error"
// @Failure      500      {object}  resp.Response  "Internal error"
// @Router       /api/users/verify [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	verifier Verifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

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

		acc, err := verifier.Verify(ctx, req.Email, req.Code)
		if err != nil {
			for _, rejection := range rejections {
				if errors.Is(err, rejection) {
					log.Info("verification rejected", sl.Err(err))

					resp.Fail(w, r, http.StatusBadRequest, rejection.Error())

					return
				}
			}

			log.Error("failed to verify user", sl.Err(err))

			resp.Internal(w, r, err)

			return
		}

		log.Info("email verified successfully", slog.String("user_id", acc.ID))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "Account verified successfully",
		})
	}
}
