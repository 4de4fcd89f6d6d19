// Command popcorn serves the movie browsing API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/popcorn/popcorn/internal/api"
	"github.com/popcorn/popcorn/internal/config"
	"github.com/popcorn/popcorn/internal/database"
	"github.com/popcorn/popcorn/internal/logger"
	"github.com/popcorn/popcorn/internal/startup"
	"github.com/popcorn/popcorn/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "popcorn:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(config.Version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	recent := logger.NewRecent(1000)
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Extra:      recent,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Bool("developerMode", cfg.DeveloperMode).
		Msg("starting Popcorn")
	if len(cfg.Auth.AdminEmails) == 0 {
		log.Warn().Msg("auth.admin_emails is empty, /system and /scheduler routes are closed to every account")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	server, err := api.NewServer(db.Conn(), hub, cfg, log.Logger)
	if err != nil {
		return err
	}
	server.SetRecentLogs(recent)

	go func() {
		err := startup.ProbeCatalog(ctx, server.Metadata(), startup.DefaultRetryConfig(), log.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("catalog probe failed, list fetches will report errors until it is reachable")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
