package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore connects a bounded pool and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			mobile TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			business_type TEXT,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			otp TEXT,
			otp_expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_role_check CHECK (role IN ('User', 'Business')),
			CONSTRAINT users_business_type_check CHECK ((role = 'Business') = (business_type IS NOT NULL)),
			CONSTRAINT users_otp_pair_check CHECK ((otp IS NULL) = (otp_expires_at IS NULL))
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_mobile_unique_idx ON users (mobile);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, first_name, last_name, email, mobile, password_hash, role, business_type, is_verified, otp, otp_expires_at, created_at`

// CreateUser inserts an unverified user row with its initial OTP pair.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (first_name, last_name, email, mobile, password_hash, role, business_type, otp, otp_expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + userColumns + `;`

	row := s.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, user.Mobile,
		user.PasswordHash, user.Role, user.BusinessType, user.OTP, user.OTPExpiresAt)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a full user record by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByMobile fetches a full user record by mobile number.
func (s *Store) FindByMobile(ctx context.Context, mobile string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE mobile = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, mobile))
}

// FindByID fetches the sanitized projection by id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.PublicUser, error) {
	const query = `
	SELECT id, first_name, last_name, email, mobile, role, business_type, is_verified, created_at
	FROM users WHERE id = $1;`
	return scanPublicUser(s.pool.QueryRow(ctx, query, id))
}

// StoreOTP replaces the pending OTP pair on a still-unverified row. The
// is_verified guard in the WHERE clause is what stops an OTP reset on an
// already-verified account.
func (s *Store) StoreOTP(ctx context.Context, mobile, otp string, expiresAt time.Time) error {
	const query = `
	UPDATE users SET otp = $2, otp_expires_at = $3
	WHERE mobile = $1 AND is_verified = FALSE;`

	tag, err := s.pool.Exec(ctx, query, mobile, otp, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ConsumeOTP matches the code and marks the account verified in one
// statement. Two concurrent calls with the same code race on this UPDATE;
// the row's is_verified flip guarantees only one observes a match.
func (s *Store) ConsumeOTP(ctx context.Context, mobile, otp string, now time.Time) (int64, error) {
	const query = `
	UPDATE users SET is_verified = TRUE, otp = NULL, otp_expires_at = NULL
	WHERE mobile = $1 AND otp = $2 AND otp_expires_at > $3 AND is_verified = FALSE
	RETURNING id;`

	var id int64
	if err := s.pool.QueryRow(ctx, query, mobile, otp, now).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// UpdateProfile applies the restricted field set. Uniqueness of email and
// mobile is re-checked by the table constraints, not by a prior SELECT.
func (s *Store) UpdateProfile(ctx context.Context, id int64, update storage.ProfileUpdate) (models.PublicUser, error) {
	const query = `
	UPDATE users SET
		first_name = COALESCE($2, first_name),
		last_name  = COALESCE($3, last_name),
		email      = COALESCE($4, email),
		mobile     = COALESCE($5, mobile)
	WHERE id = $1
	RETURNING id, first_name, last_name, email, mobile, role, business_type, is_verified, created_at;`

	row := s.pool.QueryRow(ctx, query, id,
		update.FirstName, update.LastName, update.Email, update.Mobile)
	updated, err := scanPublicUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.PublicUser{}, storage.ErrAlreadyExists
		}
		return models.PublicUser{}, err
	}
	return updated, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Mobile,
		&user.PasswordHash, &user.Role, &user.BusinessType, &user.IsVerified,
		&user.OTP, &user.OTPExpiresAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanPublicUser(row pgx.Row) (models.PublicUser, error) {
	var user models.PublicUser
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Mobile,
		&user.Role, &user.BusinessType, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PublicUser{}, storage.ErrNotFound
		}
		return models.PublicUser{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
