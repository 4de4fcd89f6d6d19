// Package api wires the HTTP surface: routes, middleware and the handlers
// that compose auth, sessions, movie lists, profiles and the catalog.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/api/ratelimit"
	"github.com/popcorn/popcorn/internal/auth"
	"github.com/popcorn/popcorn/internal/config"
	"github.com/popcorn/popcorn/internal/favorites"
	"github.com/popcorn/popcorn/internal/health"
	"github.com/popcorn/popcorn/internal/logger"
	"github.com/popcorn/popcorn/internal/metadata"
	"github.com/popcorn/popcorn/internal/movielist"
	"github.com/popcorn/popcorn/internal/profile"
	"github.com/popcorn/popcorn/internal/scheduler"
	"github.com/popcorn/popcorn/internal/scheduler/tasks"
	"github.com/popcorn/popcorn/internal/session"
	"github.com/popcorn/popcorn/internal/websocket"
)

// Server handles HTTP requests for the Popcorn API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	metadataService *metadata.Service
	photoStore      *profile.PhotoStore
	profileService  *profile.Service
	authService     *auth.Service
	authLimiter     *ratelimit.AuthLimiter
	sessions        *session.Manager
	favorites       *favorites.Projection
	healthService   *health.Service
	healthChecker   *health.Checker
	scheduler       *scheduler.Scheduler
	recentLogs      *logger.Recent
}

// NewServer creates the API server and every service behind it. hub may be
// nil, in which case list events are not pushed and /ws is not served.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		logger:    log,
		cfg:       cfg,
		startTime: time.Now(),
	}

	s.metadataService = metadata.NewService(&cfg.Metadata, cfg.DeveloperMode, &log)

	s.photoStore = profile.NewPhotoStore(cfg.Media.Dir, cfg.Media.PublicURL)
	s.profileService = profile.NewService(profile.NewStore(db), s.photoStore, log)

	authService, err := auth.NewService(db, s.profileService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}
	s.authService = authService
	s.authLimiter = ratelimit.NewAuthLimiter(ratelimit.Config{})

	sessionCfg := session.Config{
		IdleTimeout: cfg.Session.IdleTimeout(),
		Lists: movielist.Options{
			MinLoading: cfg.Lists.MinLoading(),
		},
	}
	if hub != nil {
		sessionCfg.BroadcasterFor = hub.ForUser
	}
	s.sessions = session.NewManager(s.metadataService, sessionCfg, log)

	s.favorites = favorites.NewProjection(s.metadataService, cfg.Lists.FavoritesConcurrency, log)

	s.healthService = health.NewService(log)
	if hub != nil {
		s.healthService.SetBroadcaster(hub)
	}
	s.healthChecker = health.NewChecker(s.healthService, db, s.metadataService, cfg.Media.Dir)

	sched, err := scheduler.New(log)
	if err != nil {
		return nil, err
	}
	s.scheduler = sched
	if err := s.registerTasks(); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) registerTasks() error {
	taskLogger := s.logger.With().Str("component", "tasks").Logger()
	if err := tasks.RegisterSessionSweepTask(s.scheduler, s.sessions); err != nil {
		return err
	}
	if err := tasks.RegisterLimiterCleanupTask(s.scheduler, s.authLimiter, taskLogger); err != nil {
		return err
	}
	if err := tasks.RegisterTokenPurgeTask(s.scheduler, s.authService, taskLogger); err != nil {
		return err
	}
	return tasks.RegisterHealthCheckTask(s.scheduler, s.healthChecker)
}

// SetRecentLogs exposes buffered log entries under /api/v1/system/logs.
func (s *Server) SetRecentLogs(recent *logger.Recent) {
	s.recentLogs = recent
}

// Metadata returns the catalog service, for the startup probe.
func (s *Server) Metadata() *metadata.Service {
	return s.metadataService
}

// Start starts background tasks and begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if err := s.scheduler.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to start scheduler")
	}

	return s.echo.Start(address)
}

// Shutdown gracefully stops the server and its background tasks.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}
	defer s.metadataService.Close()

	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP lets the server be mounted directly, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
