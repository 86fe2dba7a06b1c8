// Package repository holds the history store and the Redis pairing ledger.
package repository

// Option applies a configuration option to the MemoryHistory.
type Option func(*MemoryHistory)

// WithCapacity keeps at most n entries, dropping the oldest; n <= 0 keeps all.
func WithCapacity(n int) Option {
	return func(h *MemoryHistory) {
		if n > 0 {
			h.capacity = n
		}
	}
}
