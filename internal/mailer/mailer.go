package mailer

import (
	"context"
	"fmt"
	"net/mail"

	"gopkg.in/gomail.v2"

	"tenant_service/internal/models"
	"tenant_service/internal/rabbitmq"
)

type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Mailer delivers relay messages over SMTP, one connection per message.
type Mailer struct {
	dialer Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Mailer {
	return NewWithDialer(gomail.NewDialer(host, port, username, password), from)
}

func NewWithDialer(dialer Dialer, from string) *Mailer {
	return &Mailer{
		dialer: dialer,
		from:   from,
	}
}

// Send satisfies rabbitmq.MessageHandler. A message that can never be
// delivered is reported as rabbitmq.ErrPermanent.
func (m *Mailer) Send(ctx context.Context, msg models.Message) error {
	const op = "mailer.Send"

	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("%s: recipient %q: %w", op, msg.Email, rabbitmq.ErrPermanent)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.Email)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	s, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("%s: dial: %w", op, err)
	}
	defer s.Close()

	if err := gomail.Send(s, gm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
