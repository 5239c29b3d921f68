package broadcast

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/streamkit/logger"
)

// EventConnected is the first event every client receives.
const EventConnected = "connected"

// KeepAliveInterval is how often an idle stream gets a comment line.
var KeepAliveInterval = 30 * time.Second

// Handler streams frames published on topic to the requesting client.
func Handler(h *Hub, topic string) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := c.Writer
		// Streams outlive the server's WriteTimeout.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			h.log.Debug("could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
		}

		client := NewClient(uuid.NewString(), topic)
		if !h.Register(client) {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		defer h.Unregister(client)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		writeFrame(w, Frame{Event: EventConnected, Data: []byte(fmt.Sprintf(`{"client_id":%q}`, client.ID()))})
		w.Flush()

		keepAlive := time.NewTicker(KeepAliveInterval)
		defer keepAlive.Stop()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-client.Frames():
				if !ok {
					return
				}
				writeFrame(w, f)
				w.Flush()
			case <-keepAlive.C:
				_, _ = fmt.Fprint(w, ": keepalive\n\n")
				w.Flush()
			}
		}
	}
}

// writeFrame encodes f in text/event-stream format. Multi-line data becomes
// one data field per line.
func writeFrame(w gin.ResponseWriter, f Frame) {
	var b strings.Builder
	if f.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", f.ID)
	}
	if f.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", f.Event)
	}
	for _, line := range strings.Split(string(f.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteByte('\n')
	_, _ = w.WriteString(b.String())
}
