package server

import (
	"sync"

	"github.com/onnwee/chattail/chat"
)

// Hub fans live chat items out to SSE subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the item, which is
// acceptable for a live tail.
type Hub struct {
	mu   sync.Mutex
	subs map[chan chat.ChatItem]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan chat.ChatItem]struct{})}
}

// Publish delivers an item to every subscriber with buffer room. Wire
// this to the session's item notification.
func (h *Hub) Publish(item chat.ChatItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- item:
		default:
		}
	}
}

// Subscribe registers a buffered channel receiving future items.
func (h *Hub) Subscribe() chan chat.ChatItem {
	ch := make(chan chat.ChatItem, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan chat.ChatItem) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
