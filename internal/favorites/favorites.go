// Package favorites resolves a user's favorite ids into movie records and
// maintains the favorites list itself.
package favorites

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/popcorn/popcorn/internal/catalog"
)

// DefaultConcurrency bounds parallel detail lookups.
const DefaultConcurrency = 4

// MovieGetter fetches a single movie by id.
type MovieGetter interface {
	GetMovie(ctx context.Context, id int64) (catalog.Movie, error)
}

// Projection joins favorite ids against movie details.
type Projection struct {
	movies      MovieGetter
	concurrency int
	logger      zerolog.Logger
}

// NewProjection creates a projection that runs at most concurrency lookups at once.
func NewProjection(movies MovieGetter, concurrency int, logger zerolog.Logger) *Projection {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Projection{
		movies:      movies,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "favorites").Logger(),
	}
}

// Load fetches each id once and returns the resolved movies in the order the
// ids were given. Ids whose lookup fails are skipped.
func (p *Projection) Load(ctx context.Context, ids []int64) []catalog.Movie {
	ids = Normalize(ids)
	results := make([]*catalog.Movie, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			m, err := p.movies.GetMovie(gctx, id)
			if err != nil {
				p.logger.Warn().Err(err).Int64("movieId", id).Msg("Skipping favorite that could not be loaded")
				return nil
			}
			results[i] = &m
			return nil
		})
	}
	_ = g.Wait()

	out := make([]catalog.Movie, 0, len(ids))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// Toggle removes id from favorites if present, otherwise appends it.
// The input slice is not modified.
func Toggle(favorites []int64, id int64) (updated []int64, added bool) {
	if i := slices.Index(favorites, id); i >= 0 {
		return slices.Delete(slices.Clone(favorites), i, i+1), false
	}
	return append(slices.Clone(favorites), id), true
}

// Contains reports whether id is a favorite.
func Contains(favorites []int64, id int64) bool {
	return slices.Contains(favorites, id)
}

// Normalize drops repeated ids, keeping the first occurrence of each.
// It never returns nil.
func Normalize(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
