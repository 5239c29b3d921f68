package channel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/notify"
	"github.com/kbukum/streamkit/transport"
)

// Channel is a handle to the shared connection for one URL.
//
// All methods are safe for concurrent use. Once closed or failed a Channel
// stays dead; ask the Manager for a new one.
type Channel struct {
	id  uint64
	url string
	mgr *Manager
	log *logger.Logger

	mu      sync.Mutex
	state   State
	conn    transport.Conn
	connSeq uint64
	retries int
	timer   Timer
	subs    *registry
}

func newChannel(m *Manager, id uint64, url string) *Channel {
	return &Channel{
		id:  id,
		url: url,
		mgr: m,
		log: m.log.WithFields(logger.Fields(
			logger.FieldURL, url,
			logger.FieldChannelID, id,
		)),
		state: StateClosed,
		subs:  newRegistry(),
	}
}

// ID returns the channel's generation number within its Manager.
func (c *Channel) ID() uint64 { return c.id }

// URL returns the endpoint the channel is bound to.
func (c *Channel) URL() string { return c.url }

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the connection is open.
func (c *Channel) IsConnected() bool {
	return c.State() == StateOpen
}

// Subscriptions returns the number of callbacks registered for event.
func (c *Channel) Subscriptions(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.count(event)
}

// Events returns the subscribed event names in first-registration order.
func (c *Channel) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.events()
}

func (c *Channel) snapshot() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.retries
}

// Subscribe registers cb for event. If the connection is open the callback is
// attached immediately, otherwise it is attached when the connection opens.
// Registering the same callback twice makes it fire twice. Subscribing on a
// closed or failed channel does nothing.
func (c *Channel) Subscribe(event string, cb Callback) {
	if cb == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.alive() {
		c.log.Warn("subscribe on inactive channel ignored", logger.Fields(
			logger.FieldEvent, event,
			logger.FieldStatus, c.state.String(),
		))
		return
	}

	c.subs.add(event, cb)
	c.mgr.metrics.subscribers.Add(context.Background(), 1, urlAttr(c.url))
	if c.state == StateOpen && c.conn != nil && c.conn.ReadyState() == transport.StateOpen {
		c.attachLocked(event, cb)
	}
}

// Close shuts the channel down: the connection is closed, pending reconnects
// are cancelled, subscriptions are dropped and the Manager's shared slot is
// released. Safe to call from any state and more than once.
func (c *Channel) Close() {
	c.shutdown()
	c.mgr.release(c, false)
}

// shutdown tears the channel down without touching the Manager.
func (c *Channel) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed && c.conn == nil && c.subs.len() == 0 {
		return
	}
	prev := c.state
	c.state = StateClosed
	c.stopTimerLocked()
	c.closeConnLocked()
	c.clearLocked()
	c.log.Debug("channel closed", logger.Fields(logger.FieldStatus, prev.String()))
}

// start enters Opening. Called once by the Manager.
func (c *Channel) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = 0
	c.connectLocked()
}

// connectLocked closes any existing connection and opens a new one.
func (c *Channel) connectLocked() {
	c.closeConnLocked()
	c.state = StateOpening
	c.connSeq++
	seq := c.connSeq

	c.conn = c.mgr.provider.Open(c.url, transport.Options{
		WithCredentials: c.mgr.withCredentials,
		OnOpen:          func() { c.handleOpen(seq) },
		OnError:         func(err error) { c.handleError(seq, err) },
	})
	c.log.Debug("connecting", logger.Fields(logger.FieldAttempt, c.retries))
}

func (c *Channel) handleOpen(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.connSeq || c.state != StateOpening {
		return
	}
	c.state = StateOpen
	c.retries = 0
	c.subs.each(c.attachLocked)

	c.mgr.metrics.opens.Add(context.Background(), 1, urlAttr(c.url))
	c.log.Info("channel open", logger.Fields("subscriptions", c.subs.len()))
}

func (c *Channel) handleError(seq uint64, err error) {
	c.mu.Lock()
	if seq != c.connSeq || !c.state.alive() {
		c.mu.Unlock()
		return
	}

	c.retries++
	code := "unknown"
	if ec, ok := transport.CodeOf(err); ok {
		code = ec.String()
	}
	c.mgr.metrics.recordError(c.url, code)
	fields := logger.Fields(
		logger.FieldAttempt, c.retries,
		"max_retries", c.mgr.cfg.MaxRetries,
		logger.FieldError, errString(err),
	)

	if c.retries >= c.mgr.cfg.MaxRetries {
		c.state = StateFailed
		c.stopTimerLocked()
		c.mu.Unlock()

		c.log.Error("retries exhausted, giving up", fields)
		c.fail()
		return
	}

	c.state = StateReconnecting
	if c.timer == nil {
		c.timer = c.mgr.afterFunc(c.mgr.cfg.ReconnectDelay, c.reconnect)
	}
	c.mu.Unlock()

	c.log.Warn("connection error, reconnect scheduled", fields)
}

// reconnect runs when the reconnect delay elapses. It is a no-op if the
// channel was closed, failed or replaced in the meantime.
func (c *Channel) reconnect() {
	if !c.mgr.isCurrent(c) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.timer = nil
	if c.state != StateReconnecting {
		return
	}
	c.mgr.metrics.reconnects.Add(context.Background(), 1, urlAttr(c.url))
	c.connectLocked()
}

// fail runs the terminal failure sequence: notify, close the connection,
// clear subscriptions, release the shared slot.
func (c *Channel) fail() {
	c.mgr.metrics.failures.Add(context.Background(), 1, urlAttr(c.url))
	c.notify(notify.ConnectionLost(c.url))

	c.mu.Lock()
	c.closeConnLocked()
	c.mu.Unlock()

	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()

	c.mgr.release(c, true)
}

func (c *Channel) notify(n notify.Notice) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("notifier panicked", logger.Fields(logger.FieldError, fmt.Sprint(r)))
		}
	}()
	c.mgr.notifier.Notify(n)
}

// attachLocked adds a transport listener that forwards event to cb.
func (c *Channel) attachLocked(event string, cb Callback) {
	seq := c.connSeq
	c.conn.AddEventListener(event, func(ev transport.Event) {
		c.dispatch(seq, event, cb, ev)
	})
}

// dispatch invokes cb with the payload. A panic in cb is recovered and logged
// so other callbacks keep running.
func (c *Channel) dispatch(seq uint64, event string, cb Callback, ev transport.Event) {
	c.mu.Lock()
	live := seq == c.connSeq && c.state.alive()
	c.mu.Unlock()
	if !live {
		return
	}

	ctx, span := c.mgr.tracer.Start(context.Background(), "streamchannel.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("streamchannel.url", c.url),
			attribute.String("streamchannel.event", event),
			attribute.String("streamchannel.event_id", ev.ID),
		),
	)
	defer span.End()

	panicked := true
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("callback panicked", logger.Fields(
				logger.FieldEvent, event,
				logger.FieldError, fmt.Sprint(r),
			))
			span.SetStatus(codes.Error, "callback panicked")
			span.RecordError(fmt.Errorf("panic: %v", r))
		}
		c.mgr.metrics.recordEvent(ctx, event, panicked)
	}()

	cb(ev.Data)
	panicked = false
}

func (c *Channel) closeConnLocked() {
	if c.conn == nil {
		return
	}
	conn := c.conn
	c.conn = nil
	if err := conn.Close(); err != nil {
		c.log.Debug("closing connection", logger.Fields(logger.FieldError, err.Error()))
	}
}

func (c *Channel) clearLocked() {
	if n := c.subs.len(); n > 0 {
		c.mgr.metrics.subscribers.Add(context.Background(), int64(-n), urlAttr(c.url))
	}
	c.subs.clear()
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
