package profile

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/validate"
)

// Handlers provides HTTP handlers for the signed-in user's profile.
type Handlers struct {
	service *Service
}

// NewHandlers creates new profile handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the profile routes. The group must be behind auth.Middleware.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Get)
	g.PUT("", h.Update)
}

// Get returns the current user's profile.
// GET /api/v1/profile
func (h *Handlers) Get(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	user, err := h.service.GetOrDefault(c.Request().Context(), claims.UserID(), claims.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// Update saves the editable profile fields. Accepts JSON, or multipart form
// data with an optional "photo" file.
// PUT /api/v1/profile
func (h *Handlers) Update(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var upd Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var photo io.Reader
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("photo")
		switch {
		case err == nil:
			f, err := fh.Open()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable photo upload")
			}
			defer f.Close()
			photo = f
		case errors.Is(err, http.ErrMissingFile):
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid photo upload")
		}
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), claims.UserID(), claims.Email, upd, photo)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ErrorResponse maps profile and validation errors to HTTP responses.
func ErrorResponse(c echo.Context, err error) error {
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "validation failed",
			"fields":  ve.Fields,
		})
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrPhotoTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrInvalidUserID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
