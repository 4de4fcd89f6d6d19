// Package movielist holds the per-category movie list state: the fetched
// list, the loading flag, the selection set and the active movie.
package movielist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/popcorn/popcorn/internal/catalog"
)

// DefaultMinLoading is the shortest time the loading flag stays raised for a fetch.
const DefaultMinLoading = time.Second

// ErrMovieNotInList is returned when an operation names an id the list does not hold.
var ErrMovieNotInList = errors.New("movie not in list")

// Fetcher loads one category's movies from the remote catalog.
type Fetcher interface {
	ListMovies(ctx context.Context, category catalog.Category) ([]catalog.Movie, error)
}

// Options configures a Manager. Zero values select the defaults; a negative
// MinLoading disables the loading floor.
type Options struct {
	MinLoading  time.Duration
	Clock       clockwork.Clock
	NewID       IDGenerator
	Broadcaster Broadcaster
	Logger      zerolog.Logger
}

// State is an immutable snapshot of a list.
type State struct {
	Category catalog.Category `json:"category"`
	Movies   []catalog.Movie  `json:"movies"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
	Selected []int64          `json:"selected"`
	ActiveID *int64           `json:"activeId"`
}

// Manager owns one category's list. All methods are safe for concurrent use.
type Manager struct {
	category    catalog.Category
	fetcher     Fetcher
	clock       clockwork.Clock
	minLoading  time.Duration
	newID       IDGenerator
	broadcaster Broadcaster
	logger      zerolog.Logger

	flight singleflight.Group

	mu       sync.RWMutex
	movies   []catalog.Movie
	loading  bool
	lastErr  error
	selected map[int64]struct{}
	activeID *int64
}

// NewManager creates an empty list manager for category.
func NewManager(category catalog.Category, fetcher Fetcher, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.NewID == nil {
		opts.NewID = UUIDGenerator
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = nopBroadcaster{}
	}
	switch {
	case opts.MinLoading == 0:
		opts.MinLoading = DefaultMinLoading
	case opts.MinLoading < 0:
		opts.MinLoading = 0
	}

	return &Manager{
		category:    category,
		fetcher:     fetcher,
		clock:       opts.Clock,
		minLoading:  opts.MinLoading,
		newID:       opts.NewID,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger.With().Str("component", "movielist").Str("category", category.String()).Logger(),
		selected:    make(map[int64]struct{}),
	}
}

// Category returns the category this manager serves.
func (m *Manager) Category() catalog.Category {
	return m.category
}

// FetchIfNeeded loads the list unless it already holds movies.
// Concurrent callers share a single remote request, which is not tied to any
// one caller's cancellation: a caller whose ctx ends stops waiting while the
// fetch completes for the others. On failure the list stays empty, the error
// is recorded in State().Error and returned, and a later call retries.
func (m *Manager) FetchIfNeeded(ctx context.Context) error {
	if !m.isEmpty() {
		return nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.flight.DoChan("fetch", func() (interface{}, error) {
		return nil, m.fetch(shared)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) isEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.movies) == 0
}

func (m *Manager) fetch(ctx context.Context) error {
	m.mu.Lock()
	if len(m.movies) > 0 {
		m.mu.Unlock()
		return nil
	}
	m.loading = true
	m.lastErr = nil
	m.mu.Unlock()
	m.publish(EventLoading)

	start := m.clock.Now()
	movies, err := m.fetcher.ListMovies(ctx, m.category)

	if wait := m.minLoading - m.clock.Since(start); wait > 0 {
		select {
		case <-m.clock.After(wait):
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	}

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.lastErr = fmt.Errorf("fetch %s: %w", m.category, err)
		err = m.lastErr
	} else {
		m.movies = movies
		m.lastErr = nil
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn().Err(err).Msg("Movie list fetch failed")
		m.publish(EventError)
		return err
	}

	m.logger.Debug().
		Int("count", len(movies)).
		Dur("elapsed", m.clock.Since(start)).
		Msg("Movie list loaded")
	m.publish(EventUpdated)
	return nil
}

// ToggleSelect flips the selection of id and reports whether it is now selected.
// Ids not in the list are ignored.
func (m *Manager) ToggleSelect(id int64) bool {
	m.mu.Lock()
	if m.indexOf(id) < 0 {
		m.mu.Unlock()
		return false
	}
	_, was := m.selected[id]
	if was {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
	m.mu.Unlock()

	m.publish(EventUpdated)
	return !was
}

// SelectAll selects every movie in the list.
func (m *Manager) SelectAll() {
	m.mu.Lock()
	for _, mv := range m.movies {
		m.selected[mv.ID] = struct{}{}
	}
	m.mu.Unlock()

	m.publish(EventUpdated)
}

// ClearSelection empties the selection set.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	clear(m.selected)
	m.mu.Unlock()

	m.publish(EventUpdated)
}

// DeleteSelected removes every selected movie, clears the selection and
// drops the active reference if its movie was removed. It returns the
// number of movies removed; zero when nothing was selected.
func (m *Manager) DeleteSelected() int {
	m.mu.Lock()
	if len(m.selected) == 0 {
		m.mu.Unlock()
		return 0
	}

	before := len(m.movies)
	m.movies = slices.DeleteFunc(slices.Clone(m.movies), func(mv catalog.Movie) bool {
		_, ok := m.selected[mv.ID]
		return ok
	})
	removed := before - len(m.movies)
	clear(m.selected)

	if m.activeID != nil && m.indexOf(*m.activeID) < 0 {
		m.activeID = nil
	}
	m.mu.Unlock()

	m.logger.Debug().Int("removed", removed).Msg("Deleted selected movies")
	m.publish(EventUpdated)
	return removed
}

// Duplicate inserts a copy of the movie with the given id directly after it,
// under a fresh id not used elsewhere in the list. The boolean is false when
// id is not in the list.
func (m *Manager) Duplicate(id int64) (catalog.Movie, bool, error) {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return catalog.Movie{}, false, nil
	}

	newID, err := uniqueID(m.newID, func(candidate int64) bool {
		return m.indexOf(candidate) >= 0
	})
	if err != nil {
		m.mu.Unlock()
		return catalog.Movie{}, true, err
	}

	cp := m.movies[idx].WithID(newID)
	m.movies = slices.Insert(slices.Clone(m.movies), idx+1, cp)
	m.mu.Unlock()

	m.publish(EventUpdated)
	return cp, true, nil
}

// SetActive marks id as the movie currently being viewed.
func (m *Manager) SetActive(id int64) error {
	m.mu.Lock()
	if m.indexOf(id) < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrMovieNotInList, id)
	}
	m.activeID = &id
	m.mu.Unlock()

	m.publish(EventUpdated)
	return nil
}

// ClearActive drops the active reference.
func (m *Manager) ClearActive() {
	m.mu.Lock()
	m.activeID = nil
	m.mu.Unlock()

	m.publish(EventUpdated)
}

// Movie returns the list entry with the given id.
func (m *Manager) Movie(id int64) (catalog.Movie, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(id); i >= 0 {
		return m.movies[i], true
	}
	return catalog.Movie{}, false
}

// State returns a snapshot of the list.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

// snapshot must be called with the lock held. The movie slice is never
// mutated in place, so sharing it is safe.
func (m *Manager) snapshot() State {
	s := State{
		Category: m.category,
		Movies:   m.movies,
		Loading:  m.loading,
		Selected: make([]int64, 0, len(m.selected)),
	}
	if s.Movies == nil {
		s.Movies = []catalog.Movie{}
	}
	if m.lastErr != nil {
		s.Error = m.lastErr.Error()
	}
	// List order keeps selection output stable.
	for _, mv := range m.movies {
		if _, ok := m.selected[mv.ID]; ok {
			s.Selected = append(s.Selected, mv.ID)
		}
	}
	if m.activeID != nil {
		id := *m.activeID
		s.ActiveID = &id
	}
	return s
}

// indexOf must be called with the lock held.
func (m *Manager) indexOf(id int64) int {
	return slices.IndexFunc(m.movies, func(mv catalog.Movie) bool { return mv.ID == id })
}

func (m *Manager) publish(event string) {
	m.broadcaster.Broadcast(event, m.State())
}
