package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account. The
// identifier matches either a student number or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued token, account info and the onboarding
// flags the client uses to route the session.
type LoginResponse struct {
	AccessToken     string    `json:"access_token"`
	ExpiresIn       int64     `json:"expires_in"`
	IssuedAt        time.Time `json:"issued_at"`
	User            UserInfo  `json:"user"`
	PasswordChanged bool      `json:"password_changed"`
	ProfileComplete bool      `json:"profile_complete"`
	Next            string    `json:"next"`
}

// ChangePasswordRequest payload for the forced (and voluntary) password
// change. The default onboarding password is additionally rejected by the
// service.
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// MeResponse describes the current session: the account plus the onboarding
// flags and the route the client should land on.
type MeResponse struct {
	User            UserInfo `json:"user"`
	PasswordChanged bool     `json:"password_changed"`
	ProfileComplete bool     `json:"profile_complete"`
	Next            string   `json:"next"`
}

// UserInfo describes the authenticated account in responses.
type UserInfo struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	StudentNumber string   `json:"student_number,omitempty"`
	Name          string   `json:"name"`
	Surname       string   `json:"surname"`
	Role          UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	StudentNumber string   `json:"student_number,omitempty"`
	jwt.RegisteredClaims
}
