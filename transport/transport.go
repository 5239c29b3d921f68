package transport

// ReadyState mirrors the readiness of a push connection.
type ReadyState int

const (
	// StateConnecting means the connection has not been established yet.
	StateConnecting ReadyState = iota
	// StateOpen means the connection is live and delivering events.
	StateOpen
	// StateClosed means the connection has ended or was closed.
	StateClosed
)

// String returns the state name.
func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultEventName is the event name used when the server does not name an event.
const DefaultEventName = "message"

// Event is a named event received from the server.
type Event struct {
	Name string
	Data string
	ID   string
}

// Options configures a single connection.
type Options struct {
	// WithCredentials sends cookies and configured authentication.
	WithCredentials bool
	// OnOpen is called once when the connection is established.
	OnOpen func()
	// OnError is called when the connection fails or ends.
	OnError func(error)
}

// Conn is a live server-push connection.
//
// Listener, OnOpen and OnError callbacks are invoked asynchronously, never from
// inside Open, AddEventListener or Close. Once Close has been called no new
// callback starts; one already in progress may complete.
type Conn interface {
	// AddEventListener registers fn for events named event.
	AddEventListener(event string, fn func(Event))
	// ReadyState reports the current connection state.
	ReadyState() ReadyState
	// Close terminates the connection. Safe to call more than once.
	Close() error
}

// Provider opens push connections. Open returns immediately; the outcome is
// reported through Options.OnOpen and Options.OnError.
type Provider interface {
	Open(url string, opts Options) Conn
}
