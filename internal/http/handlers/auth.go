package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/padharoindia/backend/internal/apperr"
	"github.com/padharoindia/backend/internal/http/respond"
	"github.com/padharoindia/backend/internal/models/dto"
	"github.com/padharoindia/backend/internal/service"
)

// AuthHandler owns the signup/verify/login/resend endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger.Named("http")}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Normalize()
	if problems := req.Validate(); len(problems) > 0 {
		respond.ValidationErrors(w, problems)
		return
	}

	result, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if !result.Delivered {
		respond.JSON(w, http.StatusCreated,
			"account created but OTP delivery failed; request a new code via resend", result.User)
		return
	}
	respond.JSON(w, http.StatusCreated, "account created, OTP sent", result.User)
}

// VerifyOTP handles POST /verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		respond.ValidationErrors(w, problems)
		return
	}

	resp, err := h.auth.VerifyOTP(r.Context(), req.Mobile, req.OTP)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "account verified", resp)
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		respond.ValidationErrors(w, problems)
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", resp)
}

// ResendOTP handles POST /resend-otp.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		respond.ValidationErrors(w, problems)
		return
	}

	if err := h.auth.ResendOTP(r.Context(), req.Mobile); err != nil {
		h.renderError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OTP sent", nil)
}

// renderError logs unexpected failures with the route before the sanitized
// response goes out.
func (h *AuthHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respond.FromError(w, err)
}
