package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	jwt_internal "github.com/kotoba-dev/kotoba/internal/jwt"
)

var (
	errNoToken   = errors.New("no access token")
	errBadClaims = errors.New("missing moderator claims")
)

// Key to store the moderator login in the request context
type key int

const ModeratorKey key = 0

// Auth holds dependencies for the moderator authentication middleware.
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// ModeratorOnly guards moderation endpoints. The token is read from the
// accessToken cookie for browser clients, or the Authorization header for
// API clients.
func (a *Auth) ModeratorOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login, err := a.extractModerator(r)
		if err != nil {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ModeratorKey, login)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) extractModerator(r *http.Request) (string, error) {
	var tokenString string
	if cookie, err := r.Cookie("accessToken"); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return "", errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errBadClaims
	}
	if isModerator, _ := claims["moderator"].(bool); !isModerator {
		return "", errBadClaims
	}
	login, _ := claims["sub"].(string)
	if login == "" {
		return "", errBadClaims
	}
	return login, nil
}

// GetModeratorFromContext returns the authenticated moderator login, or ""
// outside moderation routes.
func GetModeratorFromContext(r *http.Request) string {
	login, _ := r.Context().Value(ModeratorKey).(string)
	return login
}
