package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"sync"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/transport/sse"
)

const eventStreamMediaType = "text/event-stream"

// HTTPProvider opens text/event-stream connections over HTTP.
type HTTPProvider struct {
	cfg    Config
	client *http.Client // credentialed: cookie jar, auth applied
	anon   *http.Client
	log    *logger.Logger
}

// ProviderOption configures an HTTPProvider.
type ProviderOption func(*HTTPProvider)

// WithLogger sets the provider logger.
func WithLogger(l *logger.Logger) ProviderOption {
	return func(p *HTTPProvider) { p.log = l }
}

// WithCookieJar replaces the jar used by credentialed connections.
func WithCookieJar(jar http.CookieJar) ProviderOption {
	return func(p *HTTPProvider) { p.client.Jar = jar }
}

// WithHTTPTransport replaces the round tripper of both clients.
func WithHTTPTransport(rt http.RoundTripper) ProviderOption {
	return func(p *HTTPProvider) {
		p.client.Transport = rt
		p.anon.Transport = rt
	}
}

// NewHTTPProvider creates a provider from cfg.
func NewHTTPProvider(cfg Config, opts ...ProviderOption) (*HTTPProvider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ResponseHeaderTimeout = cfg.Timeout
	if tlsCfg != nil {
		base.TLSClientConfig = tlsCfg
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("transport: cookie jar: %w", err)
	}

	p := &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Transport: base, Jar: jar},
		anon:   &http.Client{Transport: base},
		log:    logger.WithComponent("transport"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Open starts connecting to url in the background and returns immediately.
func (p *HTTPProvider) Open(url string, opts Options) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &httpConn{
		url:       url,
		opts:      opts,
		state:     StateConnecting,
		listeners: make(map[string][]func(Event)),
		cancel:    cancel,
		log:       p.log,
	}

	req, err := p.newRequest(ctx, url, opts.WithCredentials)
	if err != nil {
		go c.fail(&Error{Code: ErrCodeValidation, Message: err.Error(), Err: err})
		return c
	}

	client := p.anon
	if opts.WithCredentials {
		client = p.client
	}
	go c.run(ctx, client, req, p.cfg.MaxEventSize)
	return c
}

func (p *HTTPProvider) newRequest(ctx context.Context, url string, withCredentials bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", eventStreamMediaType)
	req.Header.Set("Cache-Control", "no-cache")
	if withCredentials {
		p.cfg.Auth.apply(req)
	}
	return req, nil
}

type httpConn struct {
	url  string
	opts Options
	log  *logger.Logger

	mu        sync.Mutex
	state     ReadyState
	closed    bool
	listeners map[string][]func(Event)
	cancel    context.CancelFunc
}

func (c *httpConn) AddEventListener(event string, fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.listeners[event] = append(c.listeners[event], fn)
}

func (c *httpConn) ReadyState() ReadyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *httpConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosed
	c.listeners = nil
	c.mu.Unlock()

	c.cancel()
	return nil
}

func (c *httpConn) run(ctx context.Context, client *http.Client, req *http.Request, maxEventSize int) {
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.fail(classifyNetError(err))
		return
	}

	if e := ClassifyStatusCode(resp.StatusCode); e != nil {
		resp.Body.Close()
		c.fail(e)
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType != eventStreamMediaType {
		resp.Body.Close()
		c.fail(NewProtocolError(resp.StatusCode, contentType))
		return
	}

	r := sse.NewReaderSize(resp.Body, maxEventSize)
	defer r.Close()

	if !c.markOpen() {
		return
	}
	c.log.Debug("stream opened", logger.Fields(logger.FieldURL, c.url))
	if c.opts.OnOpen != nil {
		c.opts.OnOpen()
	}

	for {
		ev, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrStreamEnded
			}
			c.fail(NewConnectionError(err))
			return
		}
		name := ev.Type
		if name == "" {
			name = DefaultEventName
		}
		c.dispatch(Event{Name: name, Data: ev.Data, ID: ev.ID})
	}
}

func (c *httpConn) markOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.state = StateOpen
	return true
}

func (c *httpConn) dispatch(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fns := slices.Clone(c.listeners[ev.Name])
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (c *httpConn) fail(err *Error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.mu.Unlock()
	c.cancel()

	c.log.Debug("stream error", logger.Fields(
		logger.FieldURL, c.url,
		logger.FieldError, err.Error(),
		logger.FieldStatus, err.Code.String(),
	))
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

func classifyNetError(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}
