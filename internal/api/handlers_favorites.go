package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/metadata"
	"github.com/popcorn/popcorn/internal/profile"
)

// FavoritesResponse pairs the stored ids with the movies that could be resolved.
type FavoritesResponse struct {
	IDs    []int64              `json:"ids"`
	Movies []metadata.MovieView `json:"movies"`
}

// GET /api/v1/favorites
func (s *Server) getFavorites(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	ctx := c.Request().Context()

	user, err := s.profileService.GetOrDefault(ctx, claims.UserID(), claims.Email)
	if err != nil {
		return profile.ErrorResponse(c, err)
	}

	movies := s.favorites.Load(ctx, user.Favorites)
	views := make([]metadata.MovieView, len(movies))
	for i, m := range movies {
		views[i] = s.metadataService.NewMovieView(m)
	}

	return c.JSON(http.StatusOK, FavoritesResponse{IDs: user.Favorites, Movies: views})
}

// POST /api/v1/favorites/:id/toggle
func (s *Server) toggleFavorite(c echo.Context) error {
	claims := auth.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	favs, added, err := s.profileService.ToggleFavorite(c.Request().Context(), claims.UserID(), claims.Email, id)
	if err != nil {
		return profile.ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"favorites": favs,
		"added":     added,
	})
}
