package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/profile"
	"github.com/popcorn/popcorn/internal/validate"
)

// CredentialsRequest is the body of sign-up and login.
type CredentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthResponse is returned after a successful sign-up or login.
type AuthResponse struct {
	Token   string       `json:"token"`
	Account auth.Account `json:"account"`
	User    profile.User `json:"user"`
}

// POST /api/v1/auth/signup
func (s *Server) signUp(c echo.Context) error {
	ctx := c.Request().Context()

	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	acct, err := s.authService.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}

	token, err := s.authService.GenerateToken(acct)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token")
	}

	user, err := s.profileService.GetOrDefault(ctx, acct.UserID, acct.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, Account: acct, User: user})
}

// POST /api/v1/auth/login
func (s *Server) login(c echo.Context) error {
	ctx := c.Request().Context()

	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := auth.ValidateSignIn(req.Email, req.Password); err != nil {
		return authError(c, err)
	}

	if s.authLimiter.IsAccountLocked(req.Email) {
		remaining := s.authLimiter.GetLockoutRemaining(req.Email)
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many failed attempts, try again later")
	}

	token, acct, err := s.authService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.authLimiter.RecordFailedAttempt(req.Email)
		}
		return authError(c, err)
	}
	s.authLimiter.RecordSuccessfulLogin(req.Email)

	// Accounts created before profiles existed still get a usable document.
	user, err := s.profileService.GetOrDefault(ctx, acct.UserID, acct.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, Account: acct, User: user})
}

// POST /api/v1/auth/logout
func (s *Server) logout(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	if err := s.authService.SignOut(c.Request().Context(), claims); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to sign out")
	}
	s.sessions.End(claims.UserID())

	return c.NoContent(http.StatusNoContent)
}

// GET /api/v1/auth/me
func (s *Server) me(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	user, err := s.profileService.GetOrDefault(c.Request().Context(), claims.UserID(), claims.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"account": auth.Account{UserID: claims.UserID(), Email: claims.Email},
		"user":    user,
	})
}

func authError(c echo.Context, err error) error {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "validation failed",
			"fields":  ve.Fields,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
