package auth_service

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testPassword = "correct horse battery"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.ErrorLevel)
	os.Exit(m.Run())
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &AuthService{
		PasswordHash: string(hash),
		JWTSecret:    testSecret,
	}
}

func TestLoginIssuesAdminToken(t *testing.T) {
	a := newAuthService(t)

	response, err := a.Login(t.Context(), AdminLoginRequest{Password: testPassword})
	if err != nil {
		t.Fatal(err)
	}
	if response.Role != service.RoleAdmin || response.Token == "" {
		t.Fatalf("unexpected response %+v", response)
	}
	if time.Until(response.ExpiresAt) > defaultTokenTTL {
		t.Errorf("token outlives the default ttl, expires at %v", response.ExpiresAt)
	}

	claims, err := ParseToken(response.Token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != service.RoleAdmin || claims.Issuer != tokenIssuer {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLoginRememberForMonth(t *testing.T) {
	a := newAuthService(t)
	fixed := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	a.Now = func() time.Time { return fixed }

	response, err := a.Login(t.Context(), AdminLoginRequest{Password: testPassword, RememberForMonth: true})
	if err != nil {
		t.Fatal(err)
	}
	if !response.ExpiresAt.Equal(fixed.Add(rememberTokenTTL)) {
		t.Errorf("expires at %v, want %v", response.ExpiresAt, fixed.Add(rememberTokenTTL))
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	a := newAuthService(t)

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"wrong password", "wrong horse", potd_errors.ErrInvalidUserCredentials},
		{"empty password", "", potd_errors.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Login(t.Context(), AdminLoginRequest{Password: tc.password})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoginWithoutConfiguredAdmin(t *testing.T) {
	a := &AuthService{}
	_, err := a.Login(t.Context(), AdminLoginRequest{Password: testPassword})
	if !errors.Is(err, potd_errors.ErrInvalidUserCredentials) {
		t.Errorf("expected ErrInvalidUserCredentials, got %v", err)
	}
}

func TestParseTokenRejects(t *testing.T) {
	a := newAuthService(t)
	response, err := a.Login(t.Context(), AdminLoginRequest{Password: testPassword})
	if err != nil {
		t.Fatal(err)
	}

	expired := service.AdminClaims{
		Role: service.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	notAdmin := service.AdminClaims{Role: "viewer"}
	notAdminToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, notAdmin).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", response.Token, "other-secret"},
		{"no secret", response.Token, ""},
		{"expired", expiredToken, testSecret},
		{"missing role", notAdminToken, testSecret},
		{"garbage", "not.a.token", testSecret},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseToken(tc.token, tc.secret); !errors.Is(err, potd_errors.ErrUnAuthorized) {
				t.Errorf("expected ErrUnAuthorized, got %v", err)
			}
		})
	}
}
