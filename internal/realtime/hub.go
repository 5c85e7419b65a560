package realtime

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"
)

// Hub fans queue events out to connected SSE clients. Slow clients are
// dropped rather than allowed to back up the feed.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan string]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan string]struct{})}
}

// Subscribe registers a client. The returned cancel function must be called
// when the client disconnects.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 16)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers one event to every subscriber. A subscriber with a full
// buffer is disconnected.
func (h *Hub) Publish(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- message:
		default:
			delete(h.subscribers, ch)
			close(ch)
		}
	}
}

// SubscriberCount reports how many clients are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeSSE streams queue events to one client as server-sent events.
func (h *Hub) ServeSSE(c *gin.Context) {
	events, cancel := h.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("message", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
