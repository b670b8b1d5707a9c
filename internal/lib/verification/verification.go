package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/models"
)

const (
	DefaultCodeLength = 6
	DefaultCodeTTL    = 15 * time.Minute

	purposeVerification = "email_verification"
)

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// Issuer hands out short numeric one-time codes with a fixed lifetime.
type Issuer struct {
	length int
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(length int, ttl time.Duration) *Issuer {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	return &Issuer{
		length: length,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *Issuer) Issue() (string, time.Time) {
	var b strings.Builder
	b.Grow(i.length)

	for range i.length {
		b.WriteByte('0' + randomDigit())
	}

	return b.String(), i.now().Add(i.ttl)
}

func randomDigit() byte {
	n, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is gone.
		panic(fmt.Sprintf("verification: reading random digit: %v", err))
	}

	return byte(n.Int64())
}

// SendVerificationCode queues the code for delivery. A broker failure is
// logged and swallowed so that registration itself still succeeds.
func SendVerificationCode(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	email string,
	code string,
	expiresAt time.Time,
) {
	msg := models.Message{
		Email:   email,
		Subject: "Email verification",
		Body: fmt.Sprintf(
			"Your verification code is %s. It expires at %s.",
			code,
			expiresAt.UTC().Format(time.RFC1123),
		),
		Purpose: purposeVerification,
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send verification code", sl.Err(err))
	}
}
