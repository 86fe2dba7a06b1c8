package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/linemate/internal/domain/model"
	"github.com/okian/linemate/pkg/metrics"
)

// HistoryStore provides access to finalized splits.
type HistoryStore interface {
	// Append stores e as the newest entry.
	// Returns ErrDuplicateID if an entry with the same ID exists.
	Append(ctx context.Context, e model.HistoryEntry) error

	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]model.HistoryEntry, error)

	// All returns every entry, oldest first.
	All(ctx context.Context) ([]model.HistoryEntry, error)

	Count(ctx context.Context) int

	// Remove drops the entry with the given ID. Unknown IDs are ignored.
	Remove(ctx context.Context, id string) error

	// Reset removes every entry.
	Reset(ctx context.Context) error
}

// MemoryHistory is an in-memory append log.
type MemoryHistory struct {
	mu       sync.RWMutex
	entries  []model.HistoryEntry
	ids      map[string]struct{}
	capacity int
}

// NewMemoryHistory creates an empty history.
func NewMemoryHistory(opts ...Option) *MemoryHistory {
	h := &MemoryHistory{ids: make(map[string]struct{})}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MemoryHistory) Append(ctx context.Context, e model.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEntry)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEntry)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ids[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	h.entries = append(h.entries, e)
	h.ids[e.ID] = struct{}{}

	if h.capacity > 0 && len(h.entries) > h.capacity {
		drop := len(h.entries) - h.capacity
		for _, old := range h.entries[:drop] {
			delete(h.ids, old.ID)
		}
		h.entries = append([]model.HistoryEntry(nil), h.entries[drop:]...)
	}
	metrics.UpdateHistoryEntries(len(h.entries))
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, n int) ([]model.HistoryEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n = min(n, len(h.entries))
	out := make([]model.HistoryEntry, 0, n)
	for i := len(h.entries) - 1; i >= len(h.entries)-n; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

func (h *MemoryHistory) All(_ context.Context) ([]model.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]model.HistoryEntry(nil), h.entries...), nil
}

func (h *MemoryHistory) Count(_ context.Context) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *MemoryHistory) Remove(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ids[id]; !ok {
		return nil
	}
	delete(h.ids, id)
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	metrics.UpdateHistoryEntries(len(h.entries))
	return nil
}

func (h *MemoryHistory) Reset(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.ids = make(map[string]struct{})
	metrics.UpdateHistoryEntries(0)
	return nil
}
