package auth_service

import (
	"time"
)

const (
	defaultTokenTTL  = 12 * time.Hour
	rememberTokenTTL = 30 * 24 * time.Hour
	tokenIssuer      = "codeforces-calendar"
)

// AuthService guards the admin endpoints with a single bcrypt hashed password.
type AuthService struct {
	PasswordHash string
	JWTSecret    string
	Now          func() time.Time
}

type AdminLoginRequest struct {
	Password         string `json:"password" validate:"required,max=72"`
	RememberForMonth bool   `json:"remember_for_month"`
}

type AdminLoginResponse struct {
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
