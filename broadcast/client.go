package broadcast

import (
	"github.com/kbukum/streamkit/logger"
)

const clientBuffer = 64

// Frame is one event sent to clients.
type Frame struct {
	Event string
	Data  []byte
	ID    string
}

// Client is a connected subscriber to one topic.
type Client struct {
	id     string
	topic  string
	frames chan Frame
}

// NewClient creates a client subscribed to topic.
func NewClient(id, topic string) *Client {
	return &Client{id: id, topic: topic, frames: make(chan Frame, clientBuffer)}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Topic returns the topic the client listens on.
func (c *Client) Topic() string { return c.topic }

// Frames returns the channel the client reads from. It is closed when the
// client is unregistered.
func (c *Client) Frames() <-chan Frame { return c.frames }

// send queues f without blocking. Returns false when the client is too slow
// and the frame was dropped.
func (c *Client) send(f Frame) bool {
	select {
	case c.frames <- f:
		return true
	default:
		logger.Warn("client buffer full, dropping frame", logger.Fields(
			"client_id", c.id,
			logger.FieldEvent, f.Event,
		))
		return false
	}
}
