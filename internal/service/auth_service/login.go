package auth_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func (a *AuthService) Login(
	ctx context.Context,
	request AdminLoginRequest,
) (response AdminLoginResponse, err error) {
	if err = service.ValidateInput(request); err != nil {
		return
	}

	if a.PasswordHash == "" || a.JWTSecret == "" {
		log.Warn("admin login attempted but admin credentials are not configured")
		err = potd_errors.ErrInvalidUserCredentials
		return
	}

	// compare the password
	err = bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(request.Password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Errorf("cannot compare admin password hash, %v", err)
		}
		err = potd_errors.ErrInvalidUserCredentials
		return
	}

	ttl := defaultTokenTTL
	if request.RememberForMonth {
		ttl = rememberTokenTTL
	}
	expiry := a.now().Add(ttl)

	token, err := a.generateToken(expiry)
	if err != nil {
		return
	}

	response = AdminLoginResponse{
		Role:      service.RoleAdmin,
		Token:     token,
		ExpiresAt: expiry,
	}
	return
}

func (a *AuthService) generateToken(expiry time.Time) (string, error) {
	claims := service.AdminClaims{
		Role: service.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   service.RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.JWTSecret))
	if err != nil {
		err = fmt.Errorf("%w, cannot sign admin token, %w", potd_errors.ErrInternal, err)
		log.Error(err)
		return "", err
	}
	return token, nil
}

// ParseToken verifies an HS256 admin token signed with secret.
func ParseToken(tokenString string, secret string) (service.AdminClaims, error) {
	var claims service.AdminClaims
	if secret == "" {
		return claims, fmt.Errorf("%w, jwt secret is not configured", potd_errors.ErrUnAuthorized)
	}

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return service.AdminClaims{}, fmt.Errorf("%w, %w", potd_errors.ErrUnAuthorized, err)
	}
	if !token.Valid || claims.Role != service.RoleAdmin {
		return service.AdminClaims{}, fmt.Errorf("%w, token does not carry the admin role", potd_errors.ErrUnAuthorized)
	}
	return claims, nil
}

func (a *AuthService) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
