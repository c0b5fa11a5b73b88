// Package live fans out "records changed" signals to watchers of one owner.
package live

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Hub tracks watchers per owner. The zero value is not usable; use NewHub.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan struct{}]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan struct{}]struct{})}
}

// Subscribe registers a watcher for owner. The channel has a buffer of one:
// signals arriving while one is pending coalesce. Call cancel to unregister.
func (h *Hub) Subscribe(owner uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	set, ok := h.subs[owner]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[owner] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[owner], ch)
			if len(h.subs[owner]) == 0 {
				delete(h.subs, owner)
			}
		})
	}
}

// Publish signals every watcher of owner without blocking.
func (h *Hub) Publish(owner uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[owner] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of watchers of owner.
func (h *Hub) Watchers(owner uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}
