package dto

import (
	"strings"

	"github.com/padharoindia/backend/internal/models"
)

// SignupRequest is the /signup payload.
type SignupRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	Password     string `json:"password"`
	UserType     string `json:"userType"`
	BusinessType string `json:"businessType"`
}

// Normalize trims surrounding whitespace on every field.
func (r *SignupRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.UserType = strings.TrimSpace(r.UserType)
	r.BusinessType = strings.TrimSpace(r.BusinessType)
}

// Validate checks presence and enumerated values, returning field-level
// messages suitable for a 400 response.
func (r SignupRequest) Validate() []string {
	var problems []string
	if r.FirstName == "" {
		problems = append(problems, "firstName is required")
	}
	if r.LastName == "" {
		problems = append(problems, "lastName is required")
	}
	if r.Email == "" {
		problems = append(problems, "email is required")
	}
	if r.Mobile == "" {
		problems = append(problems, "mobile is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		problems = append(problems, "password is required")
	}
	switch {
	case r.UserType == "":
		problems = append(problems, "userType is required")
	case !models.ValidRole(r.UserType):
		problems = append(problems, "userType must be User or Business")
	case r.UserType == models.RoleBusiness && r.BusinessType == "":
		problems = append(problems, "Business type is required")
	case r.UserType == models.RoleBusiness && !models.ValidBusinessType(r.BusinessType):
		problems = append(problems, "businessType must be Hotel, Guide, or Cab")
	case r.UserType == models.RoleUser && r.BusinessType != "":
		problems = append(problems, "businessType is only valid for Business accounts")
	}
	return problems
}

// VerifyOTPRequest is the /verify-otp payload.
type VerifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

func (r VerifyOTPRequest) Validate() []string {
	var problems []string
	if strings.TrimSpace(r.Mobile) == "" {
		problems = append(problems, "mobile is required")
	}
	if strings.TrimSpace(r.OTP) == "" {
		problems = append(problems, "otp is required")
	}
	return problems
}

// LoginRequest is the /login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() []string {
	var problems []string
	if strings.TrimSpace(r.Email) == "" {
		problems = append(problems, "email is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		problems = append(problems, "password is required")
	}
	return problems
}

// ResendOTPRequest is the /resend-otp payload.
type ResendOTPRequest struct {
	Mobile string `json:"mobile"`
}

func (r ResendOTPRequest) Validate() []string {
	if strings.TrimSpace(r.Mobile) == "" {
		return []string{"mobile is required"}
	}
	return nil
}

// UpdateProfileRequest is the PUT /api/user/profile payload. Only the
// restricted field set may change; zero-value fields are left untouched.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// AuthResponse pairs a bearer token with the sanitized user it identifies.
type AuthResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}
