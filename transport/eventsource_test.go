package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

// recorder collects connection callbacks.
type recorder struct {
	opened chan struct{}
	errs   chan error
	mu     sync.Mutex
	events []Event
	got    chan Event
}

func newRecorder() *recorder {
	return &recorder{
		opened: make(chan struct{}, 1),
		errs:   make(chan error, 1),
		got:    make(chan Event, 16),
	}
}

func (r *recorder) options(withCredentials bool) Options {
	return Options{
		WithCredentials: withCredentials,
		OnOpen:          func() { r.opened <- struct{}{} },
		OnError:         func(err error) { r.errs <- err },
	}
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.got <- ev
}

func (r *recorder) waitOpen(t *testing.T) {
	t.Helper()
	select {
	case <-r.opened:
	case err := <-r.errs:
		t.Fatalf("expected open, got error: %v", err)
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for open")
	}
}

func (r *recorder) waitError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for error")
		return nil
	}
}

func (r *recorder) waitEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.got:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func newProvider(t *testing.T, cfg Config, opts ...ProviderOption) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(cfg, opts...)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	return p
}

// streamHandler writes the given SSE frames, then holds the stream open until
// the client goes away or release is closed.
func streamHandler(frames []string, release <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		flusher.Flush()
		for _, f := range frames {
			fmt.Fprint(w, f)
			flusher.Flush()
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}
}

func TestHTTPProvider_OpenAndDispatch(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := httptest.NewServer(streamHandler([]string{
		"event: update\ndata: one\n\n",
		": keepalive\n\n",
		"data: unnamed\n\n",
		"event: update\nid: 7\ndata: two\ndata: lines\n\n",
	}, release))
	defer srv.Close()

	rec := newRecorder()
	conn := newProvider(t, Config{}).Open(srv.URL, rec.options(true))
	defer conn.Close()

	conn.AddEventListener("update", rec.listen)
	conn.AddEventListener(DefaultEventName, rec.listen)
	rec.waitOpen(t)
	if conn.ReadyState() != StateOpen {
		t.Errorf("ReadyState = %v, want open", conn.ReadyState())
	}

	want := []Event{
		{Name: "update", Data: "one"},
		{Name: DefaultEventName, Data: "unnamed"},
		{Name: "update", Data: "two\nlines", ID: "7"},
	}
	for i, w := range want {
		if got := rec.waitEvent(t); got != w {
			t.Errorf("event %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestHTTPProvider_RequestHeaders(t *testing.T) {
	tests := []struct {
		name            string
		withCredentials bool
		wantAuth        string
		wantCookie      bool
	}{
		{"with credentials", true, "Bearer secret", true},
		{"without credentials", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := make(chan http.Header, 2)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				headers <- r.Header.Clone()
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			p := newProvider(t, Config{
				Headers: map[string]string{"X-Client": "test"},
				Auth:    BearerAuth("secret"),
			})

			// First request stores the cookie, the second must send it back.
			for i := 0; i < 2; i++ {
				rec := newRecorder()
				conn := p.Open(srv.URL, rec.options(tt.withCredentials))
				rec.waitError(t)
				conn.Close()
			}

			first, second := <-headers, <-headers
			if got := first.Get("Accept"); got != "text/event-stream" {
				t.Errorf("Accept = %q", got)
			}
			if got := first.Get("Cache-Control"); got != "no-cache" {
				t.Errorf("Cache-Control = %q", got)
			}
			if got := first.Get("X-Client"); got != "test" {
				t.Errorf("X-Client = %q", got)
			}
			if got := first.Get("Authorization"); got != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", got, tt.wantAuth)
			}
			if hasCookie := second.Get("Cookie") != ""; hasCookie != tt.wantCookie {
				t.Errorf("cookie sent = %v, want %v", hasCookie, tt.wantCookie)
			}
		})
	}
}

// headerTripper records outgoing request headers before delegating.
type headerTripper struct {
	next    http.RoundTripper
	headers chan http.Header
}

func (h *headerTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	h.headers <- req.Header.Clone()
	return h.next.RoundTrip(req)
}

func TestHTTPProvider_TransportAndCookieJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "preset", Path: "/"}})

	rt := &headerTripper{next: http.DefaultTransport, headers: make(chan http.Header, 1)}
	p := newProvider(t, Config{Auth: BearerAuth("secret")}, WithHTTPTransport(rt), WithCookieJar(jar))

	tests := []struct {
		name            string
		withCredentials bool
		wantCookie      string
	}{
		{"with credentials", true, "session=preset"},
		{"without credentials", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			conn := p.Open(srv.URL, rec.options(tt.withCredentials))
			defer conn.Close()
			rec.waitError(t)

			var h http.Header
			select {
			case h = <-rt.headers:
			case <-time.After(waitTimeout):
				t.Fatal("request did not pass through the custom transport")
			}
			if got := h.Get("Cookie"); got != tt.wantCookie {
				t.Errorf("Cookie = %q, want %q", got, tt.wantCookie)
			}
			if got := h.Get("Accept"); got != "text/event-stream" {
				t.Errorf("Accept = %q", got)
			}
		})
	}
}

func TestHTTPProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeAuth},
		{http.StatusForbidden, ErrCodeAuth},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusTooManyRequests, ErrCodeRateLimit},
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusBadGateway, ErrCodeServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			rec := newRecorder()
			conn := newProvider(t, Config{}).Open(srv.URL, rec.options(true))
			defer conn.Close()

			err := rec.waitError(t)
			if code, ok := CodeOf(err); !ok || code != tt.code {
				t.Errorf("code = %v (ok=%v), want %v", code, ok, tt.code)
			}
			if conn.ReadyState() != StateClosed {
				t.Errorf("ReadyState = %v, want closed", conn.ReadyState())
			}
		})
	}
}

func TestHTTPProvider_WrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	rec := newRecorder()
	conn := newProvider(t, Config{}).Open(srv.URL, rec.options(false))
	defer conn.Close()

	if code, _ := CodeOf(rec.waitError(t)); code != ErrCodeProtocol {
		t.Errorf("code = %v, want protocol", code)
	}
}

func TestHTTPProvider_StreamEnded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		fmt.Fprint(w, "data: last\n\n")
	}))
	defer srv.Close()

	rec := newRecorder()
	conn := newProvider(t, Config{}).Open(srv.URL, rec.options(false))
	defer conn.Close()
	conn.AddEventListener(DefaultEventName, rec.listen)

	rec.waitOpen(t)
	err := rec.waitError(t)
	if !errors.Is(err, ErrStreamEnded) {
		t.Errorf("expected ErrStreamEnded, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("stream end should be retryable")
	}
}

func TestHTTPProvider_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := newRecorder()
	conn := newProvider(t, Config{}).Open(url, rec.options(false))
	defer conn.Close()

	if code, _ := CodeOf(rec.waitError(t)); code != ErrCodeConnection {
		t.Errorf("code = %v, want connection", code)
	}
}

func TestHTTPProvider_InvalidURL(t *testing.T) {
	rec := newRecorder()
	conn := newProvider(t, Config{}).Open("http://[::1", rec.options(false))
	defer conn.Close()

	if code, _ := CodeOf(rec.waitError(t)); code != ErrCodeValidation {
		t.Errorf("code = %v, want validation", code)
	}
}

func TestHTTPProvider_CloseStopsCallbacks(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(streamHandler(nil, release))
	defer srv.Close()

	rec := newRecorder()
	conn := newProvider(t, Config{}).Open(srv.URL, rec.options(false))
	rec.waitOpen(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	close(release)

	select {
	case err := <-rec.errs:
		t.Errorf("unexpected error callback after Close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	if conn.ReadyState() != StateClosed {
		t.Errorf("ReadyState = %v, want closed", conn.ReadyState())
	}
}

func TestNewHTTPProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bearer without token", Config{Auth: &AuthConfig{Type: AuthBearer}}},
		{"unknown auth", Config{Auth: &AuthConfig{Type: "kerberos"}}},
		{"cert without key", Config{TLS: &TLSConfig{CertFile: "c.pem"}}},
		{"missing ca", Config{TLS: &TLSConfig{CAFile: "/does/not/exist.pem"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPProvider(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
