package logger

import (
	"encoding/json"
	"sync"
)

// Entry is a single structured log line kept for diagnostics.
type Entry struct {
	Time      string         `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Recent is an io.Writer that keeps the last N zerolog JSON entries in memory.
type Recent struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRecent creates a buffer holding up to capacity entries.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = 500
	}
	return &Recent{entries: make([]Entry, capacity)}
}

// Write implements io.Writer. Lines that are not JSON objects are dropped.
func (r *Recent) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return len(p), nil //nolint:nilerr // console-formatted lines are not retained
	}

	e := Entry{}
	e.Time, _ = raw["time"].(string)
	e.Level, _ = raw["level"].(string)
	e.Component, _ = raw["component"].(string)
	e.Message, _ = raw["message"].(string)
	for _, k := range []string{"time", "level", "component", "message"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Fields = raw
	}

	r.mu.Lock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()

	return len(p), nil
}

// Entries returns retained entries from oldest to newest.
func (r *Recent) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}
