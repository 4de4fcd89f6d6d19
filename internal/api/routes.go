package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/popcorn/popcorn/internal/api/handlers"
	apimw "github.com/popcorn/popcorn/internal/api/middleware"
	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/health"
	"github.com/popcorn/popcorn/internal/metadata"
	"github.com/popcorn/popcorn/internal/profile"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	// Profile photos are the largest bodies we accept.
	s.echo.Use(middleware.BodyLimit("12M"))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Only the path is logged: the query may carry a bearer token (/ws?token=).
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("path", v.URIPath).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("path", v.URIPath).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.Static("/media", s.cfg.Media.Dir)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	s.setupAuthRoutes(api)

	protected := api.Group("")
	protected.Use(auth.Middleware(s.authService))
	adminOnly := auth.RequireAdmin(s.cfg.Auth.AdminEmails)

	s.setupListRoutes(protected)
	s.setupCatalogRoutes(protected, adminOnly)
	s.setupProfileRoutes(protected)
	s.setupSystemRoutes(protected.Group("/system", adminOnly))
	s.setupSchedulerRoutes(protected.Group("/scheduler", adminOnly))

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket, auth.Middleware(s.authService))
	}
}

func (s *Server) setupAuthRoutes(api *echo.Group) {
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.signUp, s.authLimiter.Middleware())
	authGroup.POST("/login", s.login, s.authLimiter.Middleware())

	requireAuth := auth.Middleware(s.authService)
	authGroup.POST("/logout", s.logout, requireAuth)
	authGroup.GET("/me", s.me, requireAuth)
}

func (s *Server) setupListRoutes(protected *echo.Group) {
	lists := protected.Group("/lists/:category")
	lists.GET("", s.getList)
	lists.GET("/movies/:id", s.getListMovie)
	lists.POST("/movies/:id/duplicate", s.duplicateMovie)
	lists.POST("/selection/all", s.selectAll)
	lists.POST("/selection/:id", s.toggleSelection)
	lists.DELETE("/selection", s.clearSelection)
	lists.POST("/delete-selected", s.deleteSelected)
	lists.PUT("/active/:id", s.setActive)
	lists.DELETE("/active", s.clearActive)
}

func (s *Server) setupCatalogRoutes(protected *echo.Group, adminOnly echo.MiddlewareFunc) {
	metadataHandlers := metadata.NewHandlers(s.metadataService)
	metadataHandlers.RegisterRoutes(protected.Group("/catalog"), adminOnly)
}

func (s *Server) setupProfileRoutes(protected *echo.Group) {
	profileHandlers := profile.NewHandlers(s.profileService)
	profileHandlers.RegisterRoutes(protected.Group("/profile"))

	favs := protected.Group("/favorites")
	favs.GET("", s.getFavorites)
	favs.POST("/:id/toggle", s.toggleFavorite)
}

func (s *Server) setupSystemRoutes(system *echo.Group) {
	healthHandlers := health.NewHandlers(s.healthService, s.healthChecker)
	healthHandlers.RegisterRoutes(system.Group("/health"))

	system.GET("/logs", s.getRecentLogs)
	system.GET("/sessions", s.getSessionStats)
}

func (s *Server) setupSchedulerRoutes(schedulerGroup *echo.Group) {
	if s.scheduler == nil {
		return
	}
	schedulerHandler := handlers.NewSchedulerHandler(s.scheduler)
	schedulerGroup.GET("/tasks", schedulerHandler.ListTasks)
	schedulerGroup.GET("/tasks/:id", schedulerHandler.GetTask)
	schedulerGroup.POST("/tasks/:id/run", schedulerHandler.RunTask)
}
