package standard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogEntry represents a single diagnostic line.
type LogEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Level     zerolog.Level `json:"level"`
	Message   string        `json:"message"`
}

// RecentLogs keeps the last N diagnostic lines emitted by a logger.
// It is a zerolog.Hook: attach it with logger.Hook(recentLogs).
type RecentLogs struct {
	mu         sync.Mutex
	entries    []LogEntry
	maxEntries int
}

// NewRecentLogs creates a new RecentLogs buffer.
func NewRecentLogs(maxEntries int) *RecentLogs {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &RecentLogs{
		entries:    make([]LogEntry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Run implements zerolog.Hook. Disabled loggers never call it.
func (r *RecentLogs) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	})

	// ring buffer
	if len(r.entries) > r.maxEntries {
		r.entries = r.entries[len(r.entries)-r.maxEntries:]
	}
}

// Entries returns a copy of the buffered entries, oldest first.
func (r *RecentLogs) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of buffered entries at level.
func (r *RecentLogs) Count(level zerolog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
