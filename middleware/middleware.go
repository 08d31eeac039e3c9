package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/Ntropy86/Codeforces-Calendar/internal/service"
	"github.com/Ntropy86/Codeforces-Calendar/internal/service/auth_service"
	log "github.com/sirupsen/logrus"
)

const (
	KeyJwtSessionCookieName = "jwt_session"
	bearerPrefix            = "Bearer "
)

// JWTMiddleware lets the request through only with a valid admin token, taken
// from the session cookie or the Authorization header. The claims are stored
// in the request context under service.KeyCtxAdminClaims.
func JWTMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			http.Error(w, "admin token required", http.StatusUnauthorized)
			return
		}

		claims, err := auth_service.ParseToken(tokenString, os.Getenv(service.KeyJWTSecret))
		if err != nil {
			log.WithField("path", r.URL.Path).Warn(err)
			http.Error(w, "invalid or expired admin token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), service.KeyCtxAdminClaims, claims)
		handler(w, r.WithContext(ctx))
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(KeyJwtSessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}
