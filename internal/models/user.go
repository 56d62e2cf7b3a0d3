package models

import "time"

// User is the full persisted record, including credential and OTP state.
// Only the auth boundary may see PasswordHash and the OTP pair.
type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Mobile       string     `json:"mobile"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	BusinessType *string    `json:"businessType,omitempty"`
	IsVerified   bool       `json:"isVerified"`
	OTP          *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PublicUser is the sanitized projection returned to clients. It carries no
// credential or OTP fields at all.
type PublicUser struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	Role         string    `json:"role"`
	BusinessType *string   `json:"businessType,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public strips credential and OTP state from a full record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Mobile:       u.Mobile,
		Role:         u.Role,
		BusinessType: u.BusinessType,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}
