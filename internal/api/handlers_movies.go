package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/catalog"
	"github.com/popcorn/popcorn/internal/metadata"
	"github.com/popcorn/popcorn/internal/movielist"
)

// ListResponse is a list snapshot with display fields filled in for every movie.
type ListResponse struct {
	movielist.State
	Movies []metadata.MovieView `json:"movies"`
}

func (s *Server) listResponse(state movielist.State) ListResponse {
	views := make([]metadata.MovieView, len(state.Movies))
	for i, m := range state.Movies {
		views[i] = s.metadataService.NewMovieView(m)
	}
	return ListResponse{State: state, Movies: views}
}

// listManager resolves the caller's manager for the :category path parameter.
func (s *Server) listManager(c echo.Context) (*movielist.Manager, error) {
	userID := auth.UserID(c)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	category, err := catalog.ParseCategory(c.Param("category"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return s.sessions.Get(userID).Lists.Get(category), nil
}

func movieIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid movie id")
	}
	return id, nil
}

// GET /api/v1/lists/:category
func (s *Server) getList(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}

	if err := m.FetchIfNeeded(c.Request().Context()); err != nil {
		return c.JSON(http.StatusBadGateway, s.listResponse(m.State()))
	}
	return c.JSON(http.StatusOK, s.listResponse(m.State()))
}

// GET /api/v1/lists/:category/movies/:id
func (s *Server) getListMovie(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	movie, ok := m.Movie(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "movie not in list")
	}
	return c.JSON(http.StatusOK, s.metadataService.NewMovieView(movie))
}

// POST /api/v1/lists/:category/movies/:id/duplicate
func (s *Server) duplicateMovie(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	movie, ok, err := m.Duplicate(id)
	switch {
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case !ok:
		return echo.NewHTTPError(http.StatusNotFound, "movie not in list")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"movie": s.metadataService.NewMovieView(movie),
		"list":  s.listResponse(m.State()),
	})
}

// POST /api/v1/lists/:category/selection/:id
func (s *Server) toggleSelection(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	selected := m.ToggleSelect(id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"selected": selected,
		"list":     s.listResponse(m.State()),
	})
}

// POST /api/v1/lists/:category/selection/all
func (s *Server) selectAll(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	m.SelectAll()
	return c.JSON(http.StatusOK, s.listResponse(m.State()))
}

// DELETE /api/v1/lists/:category/selection
func (s *Server) clearSelection(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	m.ClearSelection()
	return c.JSON(http.StatusOK, s.listResponse(m.State()))
}

// POST /api/v1/lists/:category/delete-selected
func (s *Server) deleteSelected(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}

	removed := m.DeleteSelected()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"removed": removed,
		"list":    s.listResponse(m.State()),
	})
}

// PUT /api/v1/lists/:category/active/:id
func (s *Server) setActive(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	if err := m.SetActive(id); err != nil {
		if errors.Is(err, movielist.ErrMovieNotInList) {
			return echo.NewHTTPError(http.StatusNotFound, "movie not in list")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s.listResponse(m.State()))
}

// DELETE /api/v1/lists/:category/active
func (s *Server) clearActive(c echo.Context) error {
	m, err := s.listManager(c)
	if err != nil {
		return err
	}
	m.ClearActive()
	return c.JSON(http.StatusOK, s.listResponse(m.State()))
}
