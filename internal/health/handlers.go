package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health  *Service
	checker *Checker
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service, checker *Checker) *Handlers {
	return &Handlers{health: health, checker: checker}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.POST("/check", h.RunChecks)
}

// GetAll returns all health items grouped by category.
// GET /api/v1/system/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns per-category counts.
// GET /api/v1/system/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// RunChecks runs every check now and returns the result.
// POST /api/v1/system/health/check
func (h *Handlers) RunChecks(c echo.Context) error {
	if err := h.checker.CheckAll(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, h.health.GetAll())
}
