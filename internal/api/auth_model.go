package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Context key types to avoid collisions
type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

// HTTP header constants
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// HTTP path constants
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Error message constants
const (
	ErrAuthHeaderRequired = "Authorization header required"
	ErrInvalidAuthHeader  = "Invalid authorization header format"
	ErrInvalidToken       = "Invalid token"
	ErrRoleForbidden      = "Forbidden"

	ErrUserIDNotFound     = "user ID not found in context"
	ErrUserRoleNotFound   = "user role not found in context"
	ErrInvalidTokenClaims = "invalid token claims"
	ErrTokenParseFailed   = "failed to parse token: %w"
)

// Log message constants
const (
	LogJWTValidationFailed = "JWT token validation failed"
)

// AuthClaims are the claims the auth service puts in its tokens.
type AuthClaims struct {
	Sub   string `json:"sub"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetAudience implements jwt.Claims interface
func (c *AuthClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}

// GetExpirationTime implements jwt.Claims interface
func (c *AuthClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *AuthClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.Iat == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetIssuer implements jwt.Claims interface
func (c *AuthClaims) GetIssuer() (string, error) {
	return c.Iss, nil
}

// GetNotBefore implements jwt.Claims interface
func (c *AuthClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetSubject implements jwt.Claims interface
func (c *AuthClaims) GetSubject() (string, error) {
	return c.Sub, nil
}
