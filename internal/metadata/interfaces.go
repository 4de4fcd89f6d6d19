package metadata

import (
	"context"

	"github.com/popcorn/popcorn/internal/catalog"
)

// TMDBClient defines the interface for TMDB API operations.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	ListMovies(ctx context.Context, category catalog.Category) ([]catalog.Movie, error)
	GetMovie(ctx context.Context, id int64) (catalog.Movie, error)
	GetImageURL(path string, size string) string
}
