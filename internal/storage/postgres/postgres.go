package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tenant_service/internal/models"
	"tenant_service/internal/storage"
	"tenant_service/internal/storage/postgres/migrations"
)

const (
	codeUniqueViolation     = "23505"
	codeInvalidTextEncoding = "22P02"

	constraintUsersEmail    = "users_email_key"
	constraintUsersUsername = "users_username_key"
	constraintProductSKU    = "ix_products_tenant_sku"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.EmailExists"

	var exists bool

	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *PostgresRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	const op = "storage.postgres.UsernameExists"

	var exists bool

	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *PostgresRepo) SaveAccount(ctx context.Context, acc models.Account) (models.Account, error) {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO users (id, email, username, password_hash, enabled, verification_code, verification_expiration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at;
	`

	err := r.pool.QueryRow(ctx, query,
		acc.ID,
		acc.Email,
		acc.Username,
		acc.PassHash,
		acc.Enabled,
		acc.VerificationCode,
		acc.VerificationCodeExpiry,
	).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			switch pgErr.ConstraintName {
			case constraintUsersEmail:
				return models.Account{}, storage.ErrEmailExists
			case constraintUsersUsername:
				return models.Account{}, storage.ErrUsernameExists
			}
		}

		return models.Account{}, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return acc, nil
}

func (r *PostgresRepo) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := `
		SELECT id::text, email, username, password_hash, enabled,
		       verification_code, verification_expiration, created_at, updated_at
		FROM users
		WHERE email = $1;
	`

	var a models.Account

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.PassHash,
		&a.Enabled,
		&a.VerificationCode,
		&a.VerificationCodeExpiry,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// UpdateVerification persists the verification state of an account.
func (r *PostgresRepo) UpdateVerification(ctx context.Context, acc models.Account) (models.Account, error) {
	const op = "storage.postgres.UpdateVerification"

	query := `
		UPDATE users
		SET enabled = $2, verification_code = $3, verification_expiration = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at;
	`

	err := r.pool.QueryRow(ctx, query,
		acc.ID,
		acc.Enabled,
		acc.VerificationCode,
		acc.VerificationCodeExpiry,
	).Scan(&acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}
