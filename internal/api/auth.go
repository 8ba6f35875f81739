package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/model"
)

// jwtSecret returns the shared HMAC secret the auth service signs with.
func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// AuthMiddleware validates JWT tokens and puts the caller's identity and
// role on the request context. Every handler downstream trusts the
// (userID, role) pair resolved here; no handler reads ambient auth state.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health check and metrics endpoints
		if r.URL.Path == HealthPath || r.URL.Path == MetricsPath {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get(AuthorizationHeader)
		if authHeader == "" {
			log.Warn().Str("path", r.URL.Path).Msg("Authorization header missing")
			http.Error(w, ErrAuthHeaderRequired, http.StatusUnauthorized)
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			log.Warn().Str("path", r.URL.Path).Msg("Invalid authorization header format")
			http.Error(w, ErrInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)

		claims, err := validateJWTToken(tokenString)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg(LogJWTValidationFailed)
			http.Error(w, ErrInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.Sub)
		ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateJWTToken verifies the token signature and expiry and returns
// the claims.
func validateJWTToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf(ErrTokenParseFailed, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, errors.New(ErrInvalidTokenClaims)
	}

	switch claims.Role {
	case model.RoleWorker, model.RoleDoctor:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}

// CallerFromContext extracts the authenticated (userID, role) pair.
func CallerFromContext(ctx context.Context) (string, string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", "", errors.New(ErrUserIDNotFound)
	}

	role, ok := ctx.Value(UserRoleKey).(string)
	if !ok || role == "" {
		return "", "", errors.New(ErrUserRoleNotFound)
	}

	return userID, role, nil
}

// RequireRoles wraps a handler with a role guard. The caller's role must
// be one of the allowed roles or the request ends with 403.
func RequireRoles(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := CallerFromContext(r.Context())
		if err != nil {
			http.Error(w, ErrInvalidToken, http.StatusUnauthorized)
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				next(w, r)
				return
			}
		}

		log.Warn().
			Str("path", r.URL.Path).
			Str("role", role).
			Msg("Role not allowed on endpoint")
		http.Error(w, ErrRoleForbidden, http.StatusForbidden)
	}
}
