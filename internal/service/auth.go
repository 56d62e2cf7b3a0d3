// Package service implements the signup -> verify -> login lifecycle on top
// of the credential store, OTP manager, and token issuer.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/padharoindia/backend/internal/apperr"
	"github.com/padharoindia/backend/internal/auth"
	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/models/dto"
	"github.com/padharoindia/backend/internal/otp"
	"github.com/padharoindia/backend/internal/storage"
)

// SignupResult reports the created account and whether the verification code
// actually went out. Delivered=false is the "account exists, verification
// undeliverable" warning state; the account is kept and the client retries
// via resend.
type SignupResult struct {
	User      models.PublicUser
	Delivered bool
}

// AuthService orchestrates the account lifecycle:
// Unregistered -> PendingVerification -> Verified.
type AuthService struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	otps   *otp.Generator
	sender otp.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService wires the orchestrator's collaborators.
func NewAuthService(store storage.UserStore, tokens *auth.TokenManager, otps *otp.Generator, sender otp.Sender, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		otps:   otps,
		sender: sender,
		logger: logger.Named("auth"),
		now:    time.Now,
	}
}

// Signup creates a PendingVerification account and sends its first OTP.
// Input is assumed syntactically valid; the HTTP boundary rejects malformed
// payloads before this point.
func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) (SignupResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignupResult{}, apperr.Wrap(apperr.Internal, "failed to process password", err)
	}

	code, err := s.otps.Generate()
	if err != nil {
		return SignupResult{}, apperr.Wrap(apperr.Internal, "failed to initiate verification", err)
	}
	expiresAt := s.otps.ExpiryFrom(s.now())

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: string(hash),
		Role:         req.UserType,
		OTP:          &code,
		OTPExpiresAt: &expiresAt,
	}
	if req.UserType == models.RoleBusiness {
		bt := req.BusinessType
		user.BusinessType = &bt
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return SignupResult{}, apperr.New(apperr.Conflict, "email or mobile already registered")
		}
		return SignupResult{}, apperr.Wrap(apperr.Internal, "failed to create account", err)
	}

	result := SignupResult{User: created.Public(), Delivered: true}
	if err := s.sender.Send(ctx, created.Mobile, code); err != nil {
		// Account creation stands; the client recovers via resend.
		s.logger.Warn("OTP delivery failed after signup",
			zap.Int64("user_id", created.ID), zap.Error(err))
		result.Delivered = false
	}
	return result, nil
}

// VerifyOTP transitions PendingVerification -> Verified and issues a token.
// Wrong code, expired code, and already-verified all collapse into the same
// generic error so the endpoint cannot be used as an oracle.
func (s *AuthService) VerifyOTP(ctx context.Context, mobile, code string) (dto.AuthResponse, error) {
	userID, err := s.store.ConsumeOTP(ctx, mobile, code, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return dto.AuthResponse{}, apperr.New(apperr.Validation, "invalid or expired OTP")
		}
		return dto.AuthResponse{}, apperr.Wrap(apperr.Internal, "failed to verify OTP", err)
	}
	return s.issueFor(ctx, userID)
}

// Login authenticates a Verified account with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return dto.AuthResponse{}, apperr.New(apperr.Authentication, "no account registered with this email")
		}
		return dto.AuthResponse{}, apperr.Wrap(apperr.Internal, "failed to fetch account", err)
	}
	if !user.IsVerified {
		return dto.AuthResponse{}, apperr.New(apperr.Forbidden, "account not verified")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return dto.AuthResponse{}, apperr.New(apperr.Authentication, "incorrect password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return dto.AuthResponse{}, apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}
	return dto.AuthResponse{Token: token, User: user.Public()}, nil
}

// ResendOTP regenerates the pending code, invalidating the previous one with
// no grace window.
func (s *AuthService) ResendOTP(ctx context.Context, mobile string) error {
	user, err := s.store.FindByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.New(apperr.NotFound, "no account registered with this mobile")
		}
		return apperr.Wrap(apperr.Internal, "failed to fetch account", err)
	}
	if user.IsVerified {
		return apperr.New(apperr.Validation, "account already verified")
	}

	code, err := s.otps.Generate()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to initiate verification", err)
	}
	if err := s.store.StoreOTP(ctx, mobile, code, s.otps.ExpiryFrom(s.now())); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The account was verified between the lookup and the update.
			return apperr.New(apperr.Validation, "account already verified")
		}
		return apperr.Wrap(apperr.Internal, "failed to initiate verification", err)
	}
	if err := s.sender.Send(ctx, mobile, code); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to deliver OTP, please retry", err)
	}
	return nil
}

// Profile returns the sanitized record for an authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (models.PublicUser, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.PublicUser{}, apperr.New(apperr.NotFound, "account not found")
		}
		return models.PublicUser{}, apperr.Wrap(apperr.Internal, "failed to fetch account", err)
	}
	return user, nil
}

// UpdateProfile applies the restricted field set for an authenticated user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req dto.UpdateProfileRequest) (models.PublicUser, error) {
	update := storage.ProfileUpdate{
		FirstName: optional(req.FirstName),
		LastName:  optional(req.LastName),
		Email:     optional(req.Email),
		Mobile:    optional(req.Mobile),
	}
	if update.FirstName == nil && update.LastName == nil && update.Email == nil && update.Mobile == nil {
		return models.PublicUser{}, apperr.New(apperr.Validation, "no updatable fields provided")
	}

	updated, err := s.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return models.PublicUser{}, apperr.New(apperr.Conflict, "email or mobile already registered")
		case errors.Is(err, storage.ErrNotFound):
			return models.PublicUser{}, apperr.New(apperr.NotFound, "account not found")
		}
		return models.PublicUser{}, apperr.Wrap(apperr.Internal, "failed to update account", err)
	}
	return updated, nil
}

func (s *AuthService) issueFor(ctx context.Context, userID int64) (dto.AuthResponse, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return dto.AuthResponse{}, apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return dto.AuthResponse{}, apperr.Wrap(apperr.Internal, "failed to fetch account", err)
	}
	return dto.AuthResponse{Token: token, User: user}, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
