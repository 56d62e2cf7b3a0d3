// Package memory provides a mutex-guarded in-memory UserStore with the same
// conditional-write semantics as the Postgres store. It exists for tests and
// local development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map. Each operation holds the lock for its whole
// read-modify-write, mirroring the single-statement atomicity of SQL.
type Store struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{users: make(map[int64]*models.User), nextID: 1}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Mobile == user.Mobile {
			return models.User{}, storage.ErrAlreadyExists
		}
	}

	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	stored := user
	s.users[user.ID] = &stored
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) FindByMobile(_ context.Context, mobile string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Mobile == mobile {
			return *u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) FindByID(_ context.Context, id int64) (models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Public(), nil
	}
	return models.PublicUser{}, storage.ErrNotFound
}

func (s *Store) StoreOTP(_ context.Context, mobile, otp string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Mobile == mobile && !u.IsVerified {
			code := otp
			expiry := expiresAt
			u.OTP = &code
			u.OTPExpiresAt = &expiry
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ConsumeOTP(_ context.Context, mobile, otp string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Mobile != mobile || u.IsVerified || u.OTP == nil || u.OTPExpiresAt == nil {
			continue
		}
		if *u.OTP != otp || !u.OTPExpiresAt.After(now) {
			continue
		}
		u.IsVerified = true
		u.OTP = nil
		u.OTPExpiresAt = nil
		return u.ID, nil
	}
	return 0, storage.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, id int64, update storage.ProfileUpdate) (models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.PublicUser{}, storage.ErrNotFound
	}

	email, mobile := u.Email, u.Mobile
	if update.Email != nil {
		email = *update.Email
	}
	if update.Mobile != nil {
		mobile = *update.Mobile
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if other.Email == email || other.Mobile == mobile {
			return models.PublicUser{}, storage.ErrAlreadyExists
		}
	}

	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	u.Email = email
	u.Mobile = mobile
	return u.Public(), nil
}
