package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/popcorn/popcorn/internal/config"
	"github.com/popcorn/popcorn/internal/logger"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":           config.Version,
		"startTime":         s.startTime.Format(time.RFC3339),
		"developerMode":     s.cfg.DeveloperMode,
		"catalogProvider":   s.metadataService.ProviderName(),
		"catalogConfigured": s.metadataService.IsConfigured(),
		"sessions":          s.sessions.Count(),
		"websocketClients":  clients,
	})
}

// GET /api/v1/system/logs
func (s *Server) getRecentLogs(c echo.Context) error {
	if s.recentLogs == nil {
		return c.JSON(http.StatusOK, []logger.Entry{})
	}
	return c.JSON(http.StatusOK, s.recentLogs.Entries())
}

// GET /api/v1/system/sessions
func (s *Server) getSessionStats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"active":             s.sessions.Count(),
		"idleTimeoutMinutes": int(s.cfg.Session.IdleTimeout().Minutes()),
	})
}
