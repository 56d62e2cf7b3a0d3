package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/padharoindia/backend/internal/apperr"
	"github.com/padharoindia/backend/internal/auth"
	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/models/dto"
	"github.com/padharoindia/backend/internal/otp"
	"github.com/padharoindia/backend/internal/storage/memory"
)

// recordingSender captures delivered codes per mobile number.
type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
	fail  bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{codes: make(map[string]string)}
}

func (r *recordingSender) Send(_ context.Context, mobile, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("gateway unavailable")
	}
	r.codes[mobile] = code
	return nil
}

func (r *recordingSender) lastCode(mobile string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[mobile]
}

func newTestService(t *testing.T) (*AuthService, *memory.Store, *recordingSender) {
	t.Helper()
	store := memory.NewStore()
	sender := newRecordingSender()
	tokens := auth.NewTokenManager("test-secret", "padharo", time.Hour)
	svc := NewAuthService(store, tokens, otp.NewGenerator(6, 5*time.Minute), sender, zap.NewNop())
	return svc, store, sender
}

func userSignup(mobile, email string) dto.SignupRequest {
	return dto.SignupRequest{
		FirstName: "Asha",
		LastName:  "Verma",
		Email:     email,
		Mobile:    mobile,
		Password:  "secret-pw",
		UserType:  models.RoleUser,
	}
}

func TestSignupCreatesPendingVerification(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.False(t, res.User.IsVerified)

	stored, err := store.FindByMobile(ctx, "9990001111")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	require.NotNil(t, stored.OTP)
	require.NotNil(t, stored.OTPExpiresAt)
	assert.Equal(t, *stored.OTP, sender.lastCode("9990001111"))
	assert.NotEqual(t, "secret-pw", stored.PasswordHash)
}

func TestSignupBusinessRequiresType(t *testing.T) {
	req := dto.SignupRequest{
		FirstName: "Ravi", LastName: "Shah",
		Email: "ravi@example.com", Mobile: "9990002222",
		Password: "secret-pw", UserType: models.RoleBusiness,
	}
	problems := req.Validate()
	require.Len(t, problems, 1)
	assert.Equal(t, "Business type is required", problems[0])
}

func TestSignupBusinessTypeStored(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	req := userSignup("9990002222", "hotel@example.com")
	req.UserType = models.RoleBusiness
	req.BusinessType = models.BusinessHotel
	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)

	stored, err := store.FindByMobile(ctx, "9990002222")
	require.NoError(t, err)
	require.NotNil(t, stored.BusinessType)
	assert.Equal(t, models.BusinessHotel, *stored.BusinessType)
}

func TestSignupDuplicateConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)

	// Same email, different mobile.
	_, err = svc.Signup(ctx, userSignup("9990009999", "asha@example.com"))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Same mobile, different email.
	_, err = svc.Signup(ctx, userSignup("9990001111", "other@example.com"))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestSignupDeliveryFailureKeepsAccount(t *testing.T) {
	svc, store, sender := newTestService(t)
	sender.fail = true
	ctx := context.Background()

	res, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	assert.False(t, res.Delivered)

	stored, err := store.FindByMobile(ctx, "9990001111")
	require.NoError(t, err)
	require.NotNil(t, stored.OTP, "OTP pair must still be pending for resend")
}

func TestVerifyOTPLifecycle(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	code := sender.lastCode("9990001111")

	// Wrong code first.
	_, err = svc.VerifyOTP(ctx, "9990001111", "000000")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	// Right code verifies and issues a token.
	resp, err := svc.VerifyOTP(ctx, "9990001111", code)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.IsVerified)

	stored, err := store.FindByMobile(ctx, "9990001111")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.OTP)
	assert.Nil(t, stored.OTPExpiresAt)

	// The former code never verifies twice.
	_, err = svc.VerifyOTP(ctx, "9990001111", code)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	code := sender.lastCode("9990001111")

	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	_, err = svc.VerifyOTP(ctx, "9990001111", code)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestConcurrentVerifyExactlyOneSucceeds(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	code := sender.lastCode("9990001111")

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyOTP(ctx, "9990001111", code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestLogin(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)

	// Unverified accounts cannot log in, even with the right password.
	_, err = svc.Login(ctx, "asha@example.com", "secret-pw")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	verified, err := svc.VerifyOTP(ctx, "9990001111", sender.lastCode("9990001111"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "secret-pw")
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))

	_, err = svc.Login(ctx, "asha@example.com", "wrong-pw")
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))

	resp, err := svc.Login(ctx, "asha@example.com", "secret-pw")
	require.NoError(t, err)
	assert.Equal(t, verified.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
}

func TestResendOTPInvalidatesOldCode(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	oldCode := sender.lastCode("9990001111")

	require.NoError(t, svc.ResendOTP(ctx, "9990001111"))
	newCode := sender.lastCode("9990001111")
	require.NotEmpty(t, newCode)

	if oldCode != newCode {
		_, err = svc.VerifyOTP(ctx, "9990001111", oldCode)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	}

	_, err = svc.VerifyOTP(ctx, "9990001111", newCode)
	assert.NoError(t, err)
}

func TestResendOTPErrors(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	err := svc.ResendOTP(ctx, "9990009999")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	_, err = svc.VerifyOTP(ctx, "9990001111", sender.lastCode("9990001111"))
	require.NoError(t, err)

	err = svc.ResendOTP(ctx, "9990001111")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestResendOTPDeliveryFailureSurfaces(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)

	sender.fail = true
	err = svc.ResendOTP(ctx, "9990001111")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	first, err := svc.Signup(ctx, userSignup("9990001111", "asha@example.com"))
	require.NoError(t, err)
	_, err = svc.Signup(ctx, userSignup("9990002222", "ravi@example.com"))
	require.NoError(t, err)
	_, err = svc.VerifyOTP(ctx, "9990001111", sender.lastCode("9990001111"))
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{FirstName: "Aasha"})
	require.NoError(t, err)
	assert.Equal(t, "Aasha", updated.FirstName)
	assert.Equal(t, "asha@example.com", updated.Email)

	// Taking another user's email is a conflict.
	_, err = svc.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{Email: "ravi@example.com"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = svc.UpdateProfile(ctx, first.User.ID, dto.UpdateProfileRequest{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.UpdateProfile(ctx, 404404, dto.UpdateProfileRequest{FirstName: "X"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
