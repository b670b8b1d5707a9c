package resend

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
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Message          string `json:"message"`
	VerificationCode string `json:"verification_code,omitempty"`
}

type CodeResender interface {
	ResendCode(ctx context.Context, email string) (models.Account, error)
}

// New godoc
// @Summary      Resend the verification code
// @Description  Replaces the pending code with a fresh one and queues it for delivery.
// @Description  The previous code stops working.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      Request   true  "Account email"
// @Success      200      {object}  Response
// @Failure      400      {object}  resp.Response  "Validation error, unknown email or already verified"
// @Failure      500      {object}  resp.Response  "Internal error"
// @Router       /api/users/verify/resend [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	resender CodeResender,
	msgSender verification.Publisher,
	exposeCode bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resend.New"

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

		acc, err := resender.ResendCode(ctx, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrAccountNotFound) || errors.Is(err, auth.ErrAlreadyVerified) {
				log.Info("resend rejected", sl.Err(err))

				resp.Fail(w, r, http.StatusBadRequest, err.Error())

				return
			}

			log.Error("failed to reissue verification code", sl.Err(err))

			resp.Internal(w, r, err)

			return
		}

		var code string
		if acc.VerificationCode != nil && acc.VerificationCodeExpiry != nil {
			code = *acc.VerificationCode
			verification.SendVerificationCode(ctx, log, msgSender, acc.Email, code, *acc.VerificationCodeExpiry)
		}

		log.Info("verification code reissued", slog.String("user_id", acc.ID))

		res := Response{
			Response: resp.OK(),
			Message:  "Verification code sent",
		}
		if exposeCode {
			res.VerificationCode = code
		}

		render.JSON(w, r, res)
	}
}
