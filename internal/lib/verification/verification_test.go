package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant_service/internal/lib/logger/handlers/slogdiscard"
	"tenant_service/internal/models"
)

func TestIssue_FormatAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := NewIssuer(6, 15*time.Minute)
	iss.now = func() time.Time { return now }

	code, exp := iss.Issue()

	assert.Len(t, code, 6)
	assert.Regexp(t, `^[0-9]{6}$`, code)
	assert.Equal(t, now.Add(15*time.Minute), exp)
}

func TestNewIssuer_Defaults(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(0, 0)

	assert.Equal(t, DefaultCodeLength, iss.length)
	assert.Equal(t, DefaultCodeTTL, iss.ttl)
}

func TestIssue_UsesAllDigits(t *testing.T) {
	t.Parallel()

	iss := NewIssuer(8, time.Minute)
	seen := make(map[rune]bool)

	for range 200 {
		code, _ := iss.Issue()
		for _, r := range code {
			seen[r] = true
		}
	}

	assert.Len(t, seen, 10)
}

type publisherStub struct {
	msgs []models.Message
	err  error
}

func (p *publisherStub) SendMessage(_ context.Context, msg models.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestSendVerificationCode(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{}
	exp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	SendVerificationCode(context.Background(), slogdiscard.NewDiscardLogger(), pub, "a@x.com", "123456", exp)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "a@x.com", pub.msgs[0].Email)
	assert.Equal(t, purposeVerification, pub.msgs[0].Purpose)
	assert.Contains(t, pub.msgs[0].Body, "123456")
}

func TestSendVerificationCode_PublishErrorSwallowed(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{err: errors.New("broker down")}

	assert.NotPanics(t, func() {
		SendVerificationCode(context.Background(), slogdiscard.NewDiscardLogger(), pub, "a@x.com", "1", time.Now())
	})
	assert.Len(t, pub.msgs, 1)
}
