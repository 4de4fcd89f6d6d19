package startup

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrCatalogNotConfigured means no API key is set and developer mode is off.
var ErrCatalogNotConfigured = errors.New("movie catalog is not configured")

// Catalog is the part of the metadata service the probe needs.
type Catalog interface {
	ProviderName() string
	IsConfigured() bool
	Test(ctx context.Context) error
}

// ProbeCatalog checks that the movie catalog is reachable, retrying while the
// network is down. The server keeps running when the probe fails; list fetches
// surface their own errors.
func ProbeCatalog(ctx context.Context, catalog Catalog, cfg RetryConfig, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "startup").Str("provider", catalog.ProviderName()).Logger()

	if !catalog.IsConfigured() {
		logger.Warn().Msg("Movie catalog has no API key; set metadata.tmdb.api_key or enable developer_mode")
		return ErrCatalogNotConfigured
	}

	if err := WithRetry(ctx, "catalog probe", cfg, catalog.Test, logger); err != nil {
		return err
	}
	logger.Info().Msg("Movie catalog reachable")
	return nil
}
