package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/catalog"
	"github.com/popcorn/popcorn/internal/config"
	"github.com/popcorn/popcorn/internal/metadata/mock"
	"github.com/popcorn/popcorn/internal/metadata/tmdb"
)

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrNotFound              = errors.New("metadata not found")
)

// Service fronts the catalog provider and caches detail lookups.
type Service struct {
	tmdb   TMDBClient
	cache  *Cache[int64, catalog.Movie]
	logger zerolog.Logger
}

// NewService creates a catalog service. In developer mode the bundled mock
// catalog replaces TMDB.
func NewService(cfg *config.MetadataConfig, developerMode bool, logger *zerolog.Logger) *Service {
	var client TMDBClient
	if developerMode {
		client = mock.NewTMDBClient()
	} else {
		client = tmdb.NewClient(cfg.TMDB, *logger)
	}

	cacheCfg := DefaultCacheConfig()
	if cfg.CacheTTLMinutes > 0 {
		cacheCfg.TTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
	}

	return newService(client, cacheCfg, logger)
}

// NewServiceWithClient creates a catalog service with a custom client (for testing/mocking).
func NewServiceWithClient(client TMDBClient, logger *zerolog.Logger) *Service {
	return newService(client, DefaultCacheConfig(), logger)
}

func newService(client TMDBClient, cacheCfg CacheConfig, logger *zerolog.Logger) *Service {
	return &Service{
		tmdb:   client,
		cache:  NewCache[int64, catalog.Movie](cacheCfg),
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// Close releases the cache sweeper.
func (s *Service) Close() {
	s.cache.Close()
}

// ProviderName returns the name of the active catalog provider.
func (s *Service) ProviderName() string {
	return s.tmdb.Name()
}

// IsConfigured reports whether the provider can serve requests.
func (s *Service) IsConfigured() bool {
	return s.tmdb.IsConfigured()
}

// Test checks provider connectivity.
func (s *Service) Test(ctx context.Context) error {
	return s.tmdb.Test(ctx)
}

// ListMovies returns a category list straight from the provider.
// List results are never cached here; list managers own that state.
func (s *Service) ListMovies(ctx context.Context, category catalog.Category) ([]catalog.Movie, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	movies, err := s.tmdb.ListMovies(ctx, category)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category.String()).Msg("TMDB list movies failed")
		return nil, fmt.Errorf("list %s failed: %w", category, err)
	}

	// Detail views can be served from list data until a real detail lookup happens.
	for _, m := range movies {
		if _, ok := s.cache.Get(m.ID); !ok {
			s.cache.Set(m.ID, m)
		}
	}

	return movies, nil
}

// GetMovie returns a movie by TMDB id, using the cache when possible.
func (s *Service) GetMovie(ctx context.Context, id int64) (catalog.Movie, error) {
	if !s.tmdb.IsConfigured() {
		return catalog.Movie{}, ErrNoProvidersConfigured
	}

	if movie, ok := s.cache.Get(id); ok {
		s.logger.Debug().Int64("tmdbId", id).Msg("Movie cache hit")
		return movie, nil
	}

	movie, err := s.tmdb.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrMovieNotFound) {
			return catalog.Movie{}, fmt.Errorf("%w: movie %d", ErrNotFound, id)
		}
		s.logger.Error().Err(err).Int64("tmdbId", id).Msg("TMDB get movie failed")
		return catalog.Movie{}, fmt.Errorf("get movie failed: %w", err)
	}

	s.cache.Set(id, movie)

	s.logger.Debug().
		Int64("tmdbId", id).
		Str("title", movie.Title).
		Msg("Got movie details")

	return movie, nil
}

// ClearCache drops all cached details.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info().Msg("Metadata cache cleared")
}

// ImageURL builds an image URL for the active provider.
func (s *Service) ImageURL(path, size string) string {
	return s.tmdb.GetImageURL(path, size)
}
