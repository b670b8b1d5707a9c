package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/lib/password"
	"tenant_service/internal/metrics"
	"tenant_service/internal/models"
	"tenant_service/internal/storage"
)

var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrDuplicateUsername  = errors.New("username already in use")
	ErrAccountNotFound    = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type AccountSaver interface {
	SaveAccount(ctx context.Context, acc models.Account) (models.Account, error)
	UpdateVerification(ctx context.Context, acc models.Account) (models.Account, error)
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

type CodeIssuer interface {
	Issue() (code string, expiresAt time.Time)
}

type TokenMinter interface {
	Mint(identity models.Identity, ttl time.Duration) (string, error)
}

type Auth struct {
	log         *slog.Logger
	accSaver    AccountSaver
	accProvider AccountProvider
	hasher      PasswordHasher
	codes       CodeIssuer
	tokens      TokenMinter
	tokenTTL    time.Duration
	now         func() time.Time
}

func New(
	log *slog.Logger,
	accSaver AccountSaver,
	accProvider AccountProvider,
	hasher PasswordHasher,
	codes CodeIssuer,
	tokens TokenMinter,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		log:         log,
		accSaver:    accSaver,
		accProvider: accProvider,
		hasher:      hasher,
		codes:       codes,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

func (a *Auth) TokenTTL() time.Duration {
	return a.tokenTTL
}

// Register creates a disabled account carrying a fresh verification code.
// The returned account includes the code so it can be relayed.
func (a *Auth) Register(
	ctx context.Context,
	email string,
	username string,
	pass string,
) (acc models.Account, err error) {
	const op = "auth.Register"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	defer func() { record("register", err) }()

	log.Debug("registering new user", slog.String("username", username))

	if err := a.checkAvailable(ctx, email, username); err != nil {
		if isDomainErr(err) {
			log.Warn("registration rejected", sl.Err(err))
			return models.Account{}, err
		}

		log.Error("failed to check account availability", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := a.hasher.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	code, expiresAt := a.codes.Issue()

	acc, err = a.accSaver.SaveAccount(ctx, models.Account{
		ID:                     uuid.NewString(),
		Email:                  email,
		Username:               username,
		PassHash:               passHash,
		Enabled:                false,
		VerificationCode:       &code,
		VerificationCodeExpiry: &expiresAt,
	})
	if err != nil {
		// a concurrent signup can pass the pre-check; the store has the final word
		switch {
		case errors.Is(err, storage.ErrEmailExists):
			log.Warn("email taken at save time")
			return models.Account{}, ErrDuplicateEmail
		case errors.Is(err, storage.ErrUsernameExists):
			log.Warn("username taken at save time")
			return models.Account{}, ErrDuplicateUsername
		}

		log.Error("failed to save account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", acc.ID))

	return acc, nil
}

// checkAvailable tests email before username.
func (a *Auth) checkAvailable(ctx context.Context, email, username string) error {
	taken, err := a.accProvider.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}

	taken, err = a.accProvider.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateUsername
	}

	return nil
}

// verifyGuard inspects an account against a submitted code. Guards run in
// order and the first failure wins.
type verifyGuard func(acc models.Account, code string, now time.Time) error

var verifyGuards = []verifyGuard{
	func(acc models.Account, _ string, _ time.Time) error {
		if acc.Enabled {
			return ErrAlreadyVerified
		}
		return nil
	},
	func(acc models.Account, _ string, now time.Time) error {
		if acc.VerificationCodeExpiry == nil || acc.VerificationCodeExpiry.Before(now) {
			return ErrCodeExpired
		}
		return nil
	},
	func(acc models.Account, code string, _ time.Time) error {
		if acc.VerificationCode == nil || *acc.VerificationCode != code {
			return ErrInvalidCode
		}
		return nil
	},
}

// Verify enables the account when the code matches and is still valid.
func (a *Auth) Verify(ctx context.Context, email, code string) (acc models.Account, err error) {
	const op = "auth.Verify"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	defer func() { record("verify", err) }()

	acc, err = a.lookup(ctx, email, ErrAccountNotFound)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.Warn("user not found")
			return models.Account{}, err
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	now := a.now()
	for _, guard := range verifyGuards {
		if err := guard(acc, code, now); err != nil {
			log.Warn("verification rejected", sl.Err(err))
			return models.Account{}, err
		}
	}

	acc.MarkVerified()

	acc, err = a.accSaver.UpdateVerification(ctx, acc)
	if err != nil {
		log.Error("failed to persist verification", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("user_id", acc.ID))

	return acc, nil
}

// Login checks credentials and mints a bearer token valid for TokenTTL.
// A disabled account is rejected before its password is looked at.
func (a *Auth) Login(ctx context.Context, email, pass string) (token string, ttl time.Duration, err error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	defer func() { record("login", err) }()

	acc, err := a.lookup(ctx, email, ErrInvalidEmail)
	if err != nil {
		if errors.Is(err, ErrInvalidEmail) {
			log.Warn("user not found")
			return "", 0, err
		}

		log.Error("failed to get user", sl.Err(err))
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if !acc.Enabled {
		log.Warn("email not verified")
		return "", 0, ErrEmailNotVerified
	}

	ok, err := a.hasher.Verify(pass, acc.PassHash)
	if err != nil {
		if !errors.Is(err, password.ErrCredentialFormat) {
			log.Error("failed to verify password", sl.Err(err))
			return "", 0, fmt.Errorf("%s: %w", op, err)
		}

		log.Error("stored password hash unusable", sl.Err(err))
		return "", 0, ErrInvalidCredentials
	}
	if !ok {
		log.Info("invalid credentials")
		return "", 0, ErrInvalidCredentials
	}

	token, err = a.tokens.Mint(models.IdentityOf(acc), a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("user_id", acc.ID))

	return token, a.tokenTTL, nil
}

// ResendCode replaces the verification code of an unverified account.
func (a *Auth) ResendCode(ctx context.Context, email string) (acc models.Account, err error) {
	const op = "auth.ResendCode"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	defer func() { record("resend_code", err) }()

	acc, err = a.lookup(ctx, email, ErrAccountNotFound)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			log.Warn("user not found")
			return models.Account{}, err
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if acc.Enabled {
		log.Warn("user already verified")
		return models.Account{}, ErrAlreadyVerified
	}

	code, expiresAt := a.codes.Issue()
	acc.VerificationCode = &code
	acc.VerificationCodeExpiry = &expiresAt

	acc, err = a.accSaver.UpdateVerification(ctx, acc)
	if err != nil {
		log.Error("failed to store new code", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification code reissued", slog.String("user_id", acc.ID))

	return acc, nil
}

func (a *Auth) lookup(ctx context.Context, email string, notFound error) (models.Account, error) {
	acc, err := a.accProvider.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Account{}, notFound
		}
		return models.Account{}, err
	}

	return acc, nil
}

var domainErrs = map[error]string{
	ErrDuplicateEmail:     "duplicate_email",
	ErrDuplicateUsername:  "duplicate_username",
	ErrAccountNotFound:    "account_not_found",
	ErrAlreadyVerified:    "already_verified",
	ErrCodeExpired:        "code_expired",
	ErrInvalidCode:        "invalid_code",
	ErrInvalidEmail:       "invalid_email",
	ErrEmailNotVerified:   "email_not_verified",
	ErrInvalidCredentials: "invalid_credentials",
}

func isDomainErr(err error) bool {
	return kind(err) != metrics.ResultError
}

// kind maps an error to its metric label; unknown errors are "error".
func kind(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}

	for target, label := range domainErrs {
		if errors.Is(err, target) {
			return label
		}
	}

	return metrics.ResultError
}

func record(operation string, err error) {
	metrics.AuthOperations.WithLabelValues(operation, kind(err)).Inc()
}
