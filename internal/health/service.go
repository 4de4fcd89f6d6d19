package health

import (
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Broadcaster sends status changes to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Service holds the in-memory health state. It resets on restart.
type Service struct {
	items       map[Category]map[string]*Item
	mu          sync.RWMutex
	broadcaster Broadcaster
	clock       clockwork.Clock
	logger      zerolog.Logger
}

// NewService creates a health service with no registered items.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[Category]map[string]*Item),
		clock:  clockwork.NewRealClock(),
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*Item)
	}
	return s
}

// SetBroadcaster sets the sink for status change events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RegisterItem starts tracking an item with OK status. Registering an
// existing item keeps its current status.
func (s *Service) RegisterItem(category Category, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category][id]; ok {
		return
	}
	s.items[category][id] = &Item{ID: id, Category: category, Name: name, Status: StatusOK}
	s.logger.Debug().Str("category", string(category)).Str("id", id).Msg("Registered health item")
}

// SetError marks an item as failing.
func (s *Service) SetError(category Category, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning marks an item as degraded.
func (s *Service) SetWarning(category Category, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus marks an item as healthy.
func (s *Service) ClearStatus(category Category, id string) {
	s.setStatus(category, id, StatusOK, "")
}

// Report sets the item's status from the outcome of a check.
func (s *Service) Report(category Category, id string, err error) {
	if err != nil {
		s.SetError(category, id, err.Error())
		return
	}
	s.ClearStatus(category, id)
}

func (s *Service) setStatus(category Category, id string, status Status, message string) {
	s.mu.Lock()
	item, ok := s.items[category][id]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn().Str("category", string(category)).Str("id", id).Msg("Status update for unregistered item")
		return
	}
	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	old := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := s.clock.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}
	snapshot := *item
	s.mu.Unlock()

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("oldStatus", string(old)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(EventUpdated, snapshot); err != nil {
			s.logger.Error().Err(err).Msg("Failed to broadcast health update")
		}
	}
}

// GetAll returns every item grouped by category, sorted by id.
func (s *Service) GetAll() map[Category][]Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Category][]Item, len(s.items))
	for _, cat := range AllCategories() {
		out[cat] = s.itemsToSlice(cat)
	}
	return out
}

// GetItem returns a copy of one item.
func (s *Service) GetItem(category Category, id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[category][id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// GetSummary counts items per category and status.
func (s *Service) GetSummary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{Categories: make([]CategorySummary, 0, len(s.items))}
	for _, cat := range AllCategories() {
		cs := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				cs.OK++
			case StatusWarning:
				cs.Warning++
			case StatusError:
				cs.Error++
			}
		}
		if cs.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, cs)
	}
	return summary
}

// IsHealthy reports whether the item exists and is OK.
func (s *Service) IsHealthy(category Category, id string) bool {
	item, ok := s.GetItem(category, id)
	return ok && item.Status == StatusOK
}

func (s *Service) itemsToSlice(category Category) []Item {
	items := make([]Item, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}
