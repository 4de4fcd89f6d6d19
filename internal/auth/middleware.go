package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const claimsKey = "authClaims"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the context. The token may also be passed as the "token" query
// parameter, which browsers need for websocket upgrades.
func Middleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			claims, err := validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token has expired")
				case errors.Is(err, ErrTokenRevoked):
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				case errors.Is(err, ErrInvalidToken):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				default:
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to validate token")
				}
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin allows only accounts whose email is listed in emails. It must
// run after Middleware. An empty list locks the routes for everyone.
func RequireAdmin(emails []string) echo.MiddlewareFunc {
	admins := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetClaims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}
			if _, ok := admins[normalizeEmail(claims.Email)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// GetClaims returns the claims stored by Middleware, or nil.
func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Get(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserID returns the authenticated user's id, or "".
func UserID(c echo.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.QueryParam("token")
}
