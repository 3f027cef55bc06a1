// Package notify carries same-process change notifications so dependent
// consumers (cart badges, dashboard counters) can refresh derived state
// without polling.
package notify

import (
	"sync"
	"time"
)

// Event describes a single mutation.
type Event struct {
	Topic  string    `json:"topic"`  // e.g. "cart", "order", "wishlist"
	Action string    `json:"action"` // e.g. "added", "updated", "cleared"
	Entity string    `json:"entity,omitempty"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// that falls behind loses events rather than stalling the mutating service.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, stamping At if unset.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
