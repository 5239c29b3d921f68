// Package transporttest provides an in-memory transport.Provider for tests.
//
// Connections never do I/O. Tests drive them explicitly with Open, Fail and
// Emit, which invoke the registered callbacks on the calling goroutine.
package transporttest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/streamkit/transport"
)

// ErrDisconnected is a convenience error for Fail.
var ErrDisconnected = transport.NewConnectionError(errors.New("disconnected"))

// Provider records every connection it opens.
type Provider struct {
	mu      sync.Mutex
	conns   []*Conn
	history []string
}

// NewProvider creates an empty fake provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Open implements transport.Provider.
func (p *Provider) Open(url string, opts transport.Options) transport.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &Conn{
		URL:       url,
		Options:   opts,
		Seq:       len(p.conns) + 1,
		provider:  p,
		state:     transport.StateConnecting,
		listeners: make(map[string][]func(transport.Event)),
	}
	p.conns = append(p.conns, c)
	p.history = append(p.history, fmt.Sprintf("open %s #%d", url, c.Seq))
	return c
}

// Conns returns every connection opened so far, oldest first.
func (p *Provider) Conns() []*Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Conn(nil), p.conns...)
}

// OpenCount returns the number of connections opened.
func (p *Provider) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Last returns the most recently opened connection, or nil.
func (p *Provider) Last() *Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.conns) == 0 {
		return nil
	}
	return p.conns[len(p.conns)-1]
}

// History returns "open <url> #n" and "close <url> #n" entries in the order
// they happened.
func (p *Provider) History() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.history...)
}

// LiveCount returns the number of connections not yet closed.
func (p *Provider) LiveCount() int {
	n := 0
	for _, c := range p.Conns() {
		if !c.Closed() {
			n++
		}
	}
	return n
}

func (p *Provider) record(entry string) {
	p.mu.Lock()
	p.history = append(p.history, entry)
	p.mu.Unlock()
}

// Conn is a fake connection.
type Conn struct {
	URL     string
	Options transport.Options
	Seq     int

	provider *Provider

	mu        sync.Mutex
	state     transport.ReadyState
	closed    bool
	listeners map[string][]func(transport.Event)
	attached  []string
}

// AddEventListener implements transport.Conn.
func (c *Conn) AddEventListener(event string, fn func(transport.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.listeners[event] = append(c.listeners[event], fn)
	c.attached = append(c.attached, event)
}

// ReadyState implements transport.Conn.
func (c *Conn) ReadyState() transport.ReadyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close implements transport.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = transport.StateClosed
	c.mu.Unlock()

	c.provider.record(fmt.Sprintf("close %s #%d", c.URL, c.Seq))
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Open simulates a successful connection and fires OnOpen.
func (c *Conn) Open() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = transport.StateOpen
	c.mu.Unlock()

	if c.Options.OnOpen != nil {
		c.Options.OnOpen()
	}
}

// Fail simulates a transport error and fires OnError.
func (c *Conn) Fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = transport.StateClosed
	c.mu.Unlock()

	if c.Options.OnError != nil {
		c.Options.OnError(err)
	}
}

// Emit delivers an event to the listeners registered for event, in order.
func (c *Conn) Emit(event, data string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fns := append([]func(transport.Event){}, c.listeners[event]...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(transport.Event{Name: event, Data: data})
	}
}

// ListenerCount returns the number of listeners attached for event.
func (c *Conn) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}

// Attached returns the event names passed to AddEventListener, in call order.
func (c *Conn) Attached() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.attached...)
}
