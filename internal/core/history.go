package core

// history.go keeps a log of served conversions.
//
// Two stores exist: MemoryHistory, a bounded in-process ring used when no
// database is configured, and PgHistory (history_pg.go) backed by
// PostgreSQL. Both satisfy HistoryStore; the service never depends on which
// one is wired in.

import (
	"context"
	"sync"
	"time"
)

// HistoryEntry records one conversion request and its outcome.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     float64   `json:"value"`
	Result    *float64  `json:"result,omitempty"`
	ErrorCode string    `json:"errorCode,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore persists conversion history.
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
	// Purge deletes entries created before cutoff and returns how many.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultMemoryHistoryCapacity is used when NewMemoryHistory gets a
// non-positive capacity.
const DefaultMemoryHistoryCapacity = 1000

// MemoryHistory is a fixed-size ring of the most recent entries.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	next    int
	full    bool
}

// NewMemoryHistory creates a ring holding at most capacity entries.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultMemoryHistoryCapacity
	}
	return &MemoryHistory{entries: make([]HistoryEntry, capacity)}
}

// Record stores entry, overwriting the oldest one when full.
func (m *MemoryHistory) Record(_ context.Context, entry HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]HistoryEntry, 0, limit)
	idx := m.next
	for i := 0; i < limit; i++ {
		idx = (idx - 1 + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

// Purge drops entries older than cutoff.
func (m *MemoryHistory) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.lenLocked()
	kept := make([]HistoryEntry, 0, n)

	// Walk oldest to newest so the rebuilt ring keeps its order
	start := 0
	if m.full {
		start = m.next
	}
	for i := 0; i < n; i++ {
		e := m.entries[(start+i)%len(m.entries)]
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	purged := int64(n - len(kept))
	if purged == 0 {
		return 0, nil
	}

	fresh := make([]HistoryEntry, len(m.entries))
	copy(fresh, kept)
	m.entries = fresh
	m.next = len(kept) % len(m.entries)
	m.full = len(kept) == len(m.entries)
	return purged, nil
}

// Len returns the number of stored entries.
func (m *MemoryHistory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lenLocked()
}

func (m *MemoryHistory) lenLocked() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}
