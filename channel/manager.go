package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/notify"
	"github.com/kbukum/streamkit/transport"
)

const componentName = "streamchannel"

var (
	_ component.Component   = (*Manager)(nil)
	_ component.Describable = (*Manager)(nil)
)

// Timer is a pending reconnect. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithAfterFunc replaces the timer used to schedule reconnects.
func WithAfterFunc(fn AfterFunc) Option {
	return func(m *Manager) { m.afterFunc = fn }
}

// WithMeterProvider sets the provider for channel metrics. Defaults to the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Manager) { m.meterProvider = mp }
}

// WithTracerProvider sets the provider for dispatch spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracerProvider = tp }
}

// WithCredentials controls whether connections send cookies and configured
// credentials. Enabled by default.
func WithCredentials(enabled bool) Option {
	return func(m *Manager) { m.withCredentials = enabled }
}

// Manager owns the single shared channel of an application.
type Manager struct {
	provider        transport.Provider
	notifier        notify.Notifier
	cfg             Config
	log             *logger.Logger
	afterFunc       AfterFunc
	withCredentials bool
	meterProvider   metric.MeterProvider
	tracerProvider  trace.TracerProvider
	metrics         *metrics
	tracer          trace.Tracer

	mu         sync.Mutex
	current    *Channel
	nextID     uint64
	lastFailed string
}

// NewManager creates a manager that opens connections through provider and
// reports terminal failures to notifier. A nil notifier logs the failure.
func NewManager(provider transport.Provider, notifier notify.Notifier, cfg Config, opts ...Option) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("channel: provider is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		provider:        provider,
		notifier:        notifier,
		cfg:             cfg,
		log:             logger.WithComponent(componentName),
		afterFunc:       realAfterFunc,
		withCredentials: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notify.NewLogNotifier(m.log)
	}
	if m.meterProvider == nil {
		m.meterProvider = otel.GetMeterProvider()
	}
	if m.tracerProvider == nil {
		m.tracerProvider = otel.GetTracerProvider()
	}

	met, err := newMetrics(m.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	m.metrics = met
	m.tracer = m.tracerProvider.Tracer(instrumentationName)
	return m, nil
}

// Shared returns the channel bound to url. A live channel for the same URL is
// returned unchanged. A channel for another URL is closed first, then a new
// channel is created and starts connecting.
func (m *Manager) Shared(url string) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.current; c != nil {
		if c.url == url && c.State().alive() {
			return c
		}
		m.current = nil
		c.shutdown()
		m.log.Info("shared channel replaced", logger.Fields(
			logger.FieldURL, url,
			"previous_url", c.url,
		))
	}

	m.nextID++
	c := newChannel(m, m.nextID, url)
	m.current = c
	m.lastFailed = ""
	c.start()
	return c
}

// Current returns the live channel, or nil.
func (m *Manager) Current() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// LastFailed returns the URL of the most recent channel that gave up after
// exhausting its retries, or "" once a new channel is created.
func (m *Manager) LastFailed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFailed
}

// Close closes the live channel, if any.
func (m *Manager) Close() {
	if c := m.Current(); c != nil {
		c.Close()
	}
}

// isCurrent reports whether c still holds the shared slot.
func (m *Manager) isCurrent(c *Channel) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == c
}

// release frees the shared slot if c still holds it.
func (m *Manager) release(c *Channel, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != c {
		return
	}
	m.current = nil
	if failed {
		m.lastFailed = c.url
	}
}

// Name implements component.Component.
func (m *Manager) Name() string { return componentName }

// Start implements component.Component. Channels open lazily through Shared.
func (m *Manager) Start(ctx context.Context) error {
	return nil
}

// Stop implements component.Component by closing the live channel.
func (m *Manager) Stop(ctx context.Context) error {
	m.Close()
	return nil
}

// Health implements component.Component.
func (m *Manager) Health(ctx context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}

	m.mu.Lock()
	c, lastFailed := m.current, m.lastFailed
	m.mu.Unlock()

	if c == nil {
		if lastFailed != "" {
			h.Status = component.StatusUnhealthy
			h.Message = "connection lost: " + lastFailed
		} else {
			h.Message = "idle"
		}
		return h
	}

	state, retries := c.snapshot()
	switch state {
	case StateOpen:
		h.Message = "open"
	case StateOpening:
		h.Status = component.StatusDegraded
		h.Message = "connecting"
	case StateReconnecting:
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("reconnecting (%d/%d)", retries, m.cfg.MaxRetries)
	default:
		h.Status = component.StatusUnhealthy
		h.Message = state.String()
	}
	return h
}

// Describe implements component.Describable.
func (m *Manager) Describe() component.Description {
	details := fmt.Sprintf("retries=%d delay=%s", m.cfg.MaxRetries, m.cfg.ReconnectDelay)
	if c := m.Current(); c != nil {
		details = c.url + " " + details
	}
	return component.Description{
		Name:    "Stream Channel",
		Type:    "stream",
		Details: details,
	}
}
