package gateway

import (
	"sync"
	"time"
)

// Event directions.
const (
	DirectionInbound  = "in"
	DirectionOutbound = "out"
)

// Event is one conversation turn published to the dev console stream.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Direction string    `json:"direction"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind,omitempty"`
	Intent    string    `json:"intent,omitempty"`
}

// Hub fans events out to subscribed console connections. Slow subscribers
// lose events rather than block message handling.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers an event to every subscriber that can take it.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
