package client

import "sync"

// EventBuffer accumulates one-shot payloads across however many snapshots
// arrive between consumption passes. Append and Drain swap double buffers
// under the lock, so no event is overwritten or lost: every appended payload
// is surfaced by exactly one Drain.
type EventBuffer[T any] struct {
	mu    sync.Mutex
	front []T
	back  []T
}

// Append stages payloads for the next consuming pass.
func (b *EventBuffer[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	b.mu.Lock()
	b.front = append(b.front, items...)
	b.mu.Unlock()
}

// Drain hands the accumulated payloads to the caller and clears the buffer
// atomically. The returned slice is valid until the next-but-one Drain,
// which recycles its backing array.
func (b *EventBuffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.front) == 0 {
		return nil
	}
	out := b.front
	b.front = b.back[:0]
	b.back = out
	return out
}

// Len reports the number of staged payloads.
func (b *EventBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.front)
}
