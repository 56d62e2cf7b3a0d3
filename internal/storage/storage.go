package storage

import (
	"context"
	"errors"
	"time"

	"github.com/padharoindia/backend/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict on email or mobile.
var ErrAlreadyExists = errors.New("record already exists")

// ProfileUpdate is the restricted field set updateable after signup. Nil
// pointers mean "leave unchanged".
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Mobile    *string
}

// UserStore captures user persistence for the auth core.
//
// Every write is a single conditional statement: concurrent callers racing on
// the same row resolve at the datastore, never by check-then-act in Go.
type UserStore interface {
	// CreateUser inserts an unverified user with its initial OTP pair set.
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// FindByEmail and FindByMobile return full records, OTP and hash
	// included; callers must not let those fields past the auth boundary.
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByMobile(ctx context.Context, mobile string) (models.User, error)

	// FindByID returns the sanitized projection only.
	FindByID(ctx context.Context, id int64) (models.PublicUser, error)

	// StoreOTP replaces the pending OTP pair. It succeeds only for an
	// existing, still-unverified row; ErrNotFound otherwise.
	StoreOTP(ctx context.Context, mobile, otp string, expiresAt time.Time) error

	// ConsumeOTP verifies and marks in one atomic statement: it flips
	// is_verified and clears the OTP pair iff the stored code matches, has
	// not expired, and the row is still unverified. Returns the user id on
	// success and ErrNotFound for any non-matching condition.
	ConsumeOTP(ctx context.Context, mobile, otp string, now time.Time) (int64, error)

	// UpdateProfile applies the restricted field set, re-checking email and
	// mobile uniqueness. ErrAlreadyExists on collision with another user.
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (models.PublicUser, error)
}
