package channel

import (
	"sync"
	"testing"
	"time"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/notify"
	"github.com/kbukum/streamkit/transport/transporttest"
)

const (
	urlA = "http://localhost:8080/events"
	urlB = "http://localhost:9090/events"
)

// manualClock collects scheduled reconnects so tests decide when they run.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// pending returns timers that were neither stopped nor fired.
func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs every pending timer.
func (c *manualClock) fire() {
	for _, t := range c.pending() {
		c.mu.Lock()
		t.fired = true
		c.mu.Unlock()
		t.fn()
	}
}

// all returns every timer ever scheduled.
func (c *manualClock) all() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*manualTimer(nil), c.timers...)
}

// noticeLog records notices.
type noticeLog struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (l *noticeLog) Notify(n notify.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) all() []notify.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notify.Notice(nil), l.notices...)
}

type fixture struct {
	mgr      *Manager
	provider *transporttest.Provider
	clock    *manualClock
	notices  *noticeLog
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		provider: transporttest.NewProvider(),
		clock:    &manualClock{},
		notices:  &noticeLog{},
	}
	opts = append([]Option{
		WithLogger(logger.Nop()),
		WithAfterFunc(f.clock.AfterFunc),
	}, opts...)
	mgr, err := NewManager(f.provider, f.notices, cfg, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	f.mgr = mgr
	return f
}

// fail reports an error on the newest connection, then runs the scheduled
// reconnect if there is one.
func (f *fixture) failAndReconnect() {
	f.provider.Last().Fail(transporttest.ErrDisconnected)
	f.clock.fire()
}

// recorder collects payloads in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) callback(tag string) Callback {
	return func(payload string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, tag+":"+payload)
	}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
