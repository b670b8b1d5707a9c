package jwt

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenant_service/internal/models"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func newCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()

	c, err := NewCodec(testSecret, opts...)
	require.NoError(t, err)

	return c
}

func testIdentity() models.Identity {
	return models.Identity{
		SubjectID: "3f8a1d2e-0000-4000-8000-000000000001",
		Email:     "a@x.com",
		Username:  "a",
		Enabled:   true,
	}
}

func TestMintDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	ids := []models.Identity{
		testIdentity(),
		{SubjectID: "42", Email: "b@y.org", Username: "bee"},
		{SubjectID: "", Email: "c@z.io", Username: "", Enabled: true},
	}

	for _, id := range ids {
		tok, err := c.Mint(id, time.Hour)
		require.NoError(t, err)

		claims, err := c.Decode(tok)
		require.NoError(t, err)

		assert.Equal(t, id.SubjectID, claims.SubjectID)
		assert.Equal(t, id.Email, claims.Subject)
		assert.Equal(t, id, claims.Identity())
	}
}

func TestMint_PayloadFields(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	tok, err := c.Mint(testIdentity(), time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	for _, field := range []string{`"subjectId"`, `"username"`, `"subject"`, `"enabled"`, `"iat"`, `"exp"`} {
		assert.Contains(t, string(payload), field)
	}
	assert.NotContains(t, string(payload), `"sub"`)
}

func TestIsLive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	c := newCodec(t, WithClock(func() time.Time { return clock }))

	tok, err := c.Mint(testIdentity(), time.Hour)
	require.NoError(t, err)

	assert.True(t, c.IsLive(tok), "fresh token")

	clock = now.Add(59 * time.Minute)
	assert.True(t, c.IsLive(tok), "within ttl")

	clock = now.Add(time.Hour)
	assert.False(t, c.IsLive(tok), "exp == now is not live")

	clock = now.Add(2 * time.Hour)
	assert.False(t, c.IsLive(tok), "expired")
}

func TestDecode_ExpiredStillDecodes(t *testing.T) {
	t.Parallel()

	c := newCodec(t)

	tok, err := c.Mint(testIdentity(), -time.Minute)
	require.NoError(t, err)

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.False(t, c.IsLive(tok))
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	c := newCodec(t)
	other, err := NewCodec(base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff")))
	require.NoError(t, err)

	foreign, err := other.Mint(testIdentity(), time.Hour)
	require.NoError(t, err)

	good, err := c.Mint(testIdentity(), time.Hour)
	require.NoError(t, err)
	tampered := good[:len(good)-2] + "xx"

	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{Subject: "a@x.com"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, Claims{Subject: "a@x.com"}).
		SignedString([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	cases := map[string]string{
		"wrong secret": foreign,
		"tampered":     tampered,
		"malformed":    "not.a.jwt",
		"empty":        "",
		"alg none":     none,
		"other alg":    hs512,
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(tok)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.False(t, c.IsLive(tok))
		})
	}
}

func TestNewCodec_SecretValidation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("%%%not-base64")
	assert.Error(t, err)

	_, err = NewCodec(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrWeakSecret)
}
