// Package health tracks whether the server's dependencies are usable: the
// movie catalog, the database and the media directory.
package health

import (
	"encoding/json"
	"time"
)

// Status is the health state of an item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Category groups health items.
type Category string

const (
	CategoryCatalog Category = "catalog"
	CategoryStorage Category = "storage"
)

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{CategoryCatalog, CategoryStorage}
}

// Item is one tracked dependency.
type Item struct {
	ID        string     `json:"id"`
	Category  Category   `json:"category"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarshalJSON omits the message and timestamp of healthy items.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	a := alias(i)
	if i.Status == StatusOK {
		a.Timestamp = nil
		a.Message = ""
	}
	return json.Marshal(a)
}

// CategorySummary counts items per status in one category.
type CategorySummary struct {
	Category Category `json:"category"`
	OK       int      `json:"ok"`
	Warning  int      `json:"warning"`
	Error    int      `json:"error"`
}

// HasIssues reports whether any item is not OK.
func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// Summary is the overview returned to clients.
type Summary struct {
	Categories []CategorySummary `json:"categories"`
	HasIssues  bool              `json:"hasIssues"`
}

// EventUpdated is broadcast whenever an item changes status.
const EventUpdated = "health:updated"
