package metadata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/catalog"
)

// Handlers provides HTTP handlers for catalog operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new catalog handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the catalog routes. adminOnly guards the cache
// route.
func (h *Handlers) RegisterRoutes(g *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	g.GET("/movie/:id", h.GetMovie)
	g.GET("/genres", h.GetGenres)
	g.GET("/status", h.GetStatus)
	g.DELETE("/cache", h.ClearCache, adminOnly...)
}

// MovieView is a movie enriched with the derived presentation fields.
type MovieView struct {
	catalog.Movie
	Genres         []string `json:"genres"`
	Language       string   `json:"language"`
	ReleaseDisplay string   `json:"release_display"`
	PosterURL      string   `json:"poster_url,omitempty"`
	BackdropURL    string   `json:"backdrop_url,omitempty"`
}

// NewMovieView derives display fields for m.
func (s *Service) NewMovieView(m catalog.Movie) MovieView {
	return MovieView{
		Movie:          m,
		Genres:         m.GenreNames(),
		Language:       catalog.LanguageName(m.OriginalLanguage),
		ReleaseDisplay: catalog.FormatReleaseDate(m.ReleaseDate),
		PosterURL:      s.ImageURL(m.PosterPath, catalog.ImageSizePoster),
		BackdropURL:    s.ImageURL(m.BackdropPath, catalog.ImageSizeBackdrop),
	}
}

// GetMovie returns details for a movie.
// GET /api/v1/catalog/movie/:id
func (h *Handlers) GetMovie(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid movie id")
	}

	movie, err := h.service.GetMovie(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "movie not found")
		case errors.Is(err, ErrNoProvidersConfigured):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "no metadata providers configured")
		default:
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}

	return c.JSON(http.StatusOK, h.service.NewMovieView(movie))
}

// GetGenres returns the genre table.
// GET /api/v1/catalog/genres
func (h *Handlers) GetGenres(c echo.Context) error {
	genres, err := catalog.Genres()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, genres)
}

// GetStatus reports provider status.
// GET /api/v1/catalog/status
func (h *Handlers) GetStatus(c echo.Context) error {
	status := map[string]interface{}{
		"provider":   h.service.ProviderName(),
		"configured": h.service.IsConfigured(),
	}
	if h.service.IsConfigured() {
		if err := h.service.Test(c.Request().Context()); err != nil {
			status["error"] = err.Error()
		}
	}
	return c.JSON(http.StatusOK, status)
}

// ClearCache drops cached movie details.
// DELETE /api/v1/catalog/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.NoContent(http.StatusNoContent)
}
