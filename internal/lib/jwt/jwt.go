package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tenant_service/internal/models"
)

// MinSecretSize is the HS256 key size in bytes.
const MinSecretSize = 32

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrWeakSecret   = errors.New("signing secret shorter than 256 bits")
)

// Claims is the token payload. The JSON field names are part of the wire
// format and must not change.
type Claims struct {
	SubjectID string           `json:"subjectId"`
	Username  string           `json:"username"`
	Subject   string           `json:"subject"`
	Enabled   bool             `json:"enabled"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func (c Claims) Identity() models.Identity {
	return models.Identity{
		SubjectID: c.SubjectID,
		Email:     c.Subject,
		Username:  c.Username,
		Enabled:   c.Enabled,
	}
}

// Codec mints and decodes HS256 bearer tokens under one process-wide secret.
// It keeps no record of issued tokens.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secretBase64 string, opts ...Option) (*Codec, error) {
	const op = "jwt.NewCodec"

	secret, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("%s: decode secret: %w", op, err)
	}

	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("%s: %w", op, ErrWeakSecret)
	}

	c := &Codec{
		secret: secret,
		now:    time.Now,
		// Expiry is judged by IsLive, so claim validation is off here.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) Mint(identity models.Identity, ttl time.Duration) (string, error) {
	const op = "jwt.Mint"

	now := c.now()

	claims := Claims{
		SubjectID: identity.SubjectID,
		Username:  identity.Username,
		Subject:   identity.Email,
		Enabled:   identity.Enabled,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Decode checks the signature and structure only. An expired token decodes
// successfully.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (c *Codec) IsLive(token string) bool {
	claims, err := c.Decode(token)
	if err != nil {
		return false
	}

	return c.Live(claims)
}

// Live is the freshness check applied to already decoded claims.
func (c *Codec) Live(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}

	return claims.ExpiresAt.Time.After(c.now())
}
