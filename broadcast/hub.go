package broadcast

import (
	"path"
	"sync"

	"github.com/kbukum/streamkit/logger"
)

// Hub manages connected clients. All mutations of the client set happen on
// the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	publish    chan message
	done       chan struct{}
	stopOnce   sync.Once
	log        *logger.Logger

	mu    sync.RWMutex
	count int
}

type message struct {
	pattern string
	frame   Frame
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan message, 256),
		done:       make(chan struct{}),
		log:        logger.WithComponent("broadcast"),
	}
}

// Run processes registrations and publishes until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for id, c := range h.clients {
				close(c.frames)
				delete(h.clients, id)
			}
			h.setCount(0)
			return

		case c := <-h.register:
			h.clients[c.id] = c
			h.setCount(len(h.clients))
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "topic", c.topic))

		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.frames)
				h.setCount(len(h.clients))
				h.log.Debug("client unregistered", logger.Fields("client_id", c.id))
			}

		case m := <-h.publish:
			h.deliver(m)
		}
	}
}

// Stop closes every client and makes Run return. Safe to call repeatedly.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c. Returns false if the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its frame channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish sends f to every client whose topic matches pattern. Pattern uses
// path.Match syntax, e.g. "notices" or "notices:*".
func (h *Hub) Publish(pattern string, f Frame) {
	select {
	case h.publish <- message{pattern: pattern, frame: f}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

func (h *Hub) deliver(m message) {
	sent := 0
	for _, c := range h.clients {
		ok, err := path.Match(m.pattern, c.topic)
		if err != nil {
			h.log.Error("bad topic pattern", logger.Fields("pattern", m.pattern, logger.FieldError, err.Error()))
			return
		}
		if ok && c.send(m.frame) {
			sent++
		}
	}
	h.log.Debug("frame published", logger.Fields(
		"pattern", m.pattern,
		logger.FieldEvent, m.frame.Event,
		"delivered", sent,
	))
}
