package notify

import (
	"fmt"
	"time"

	"github.com/kbukum/streamkit/logger"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a short user-facing message.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notice)

// Notify calls f(n).
func (f Func) Notify(n Notice) {
	f(n)
}

// Multi fans a notice out to every notifier in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(n Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier that logs at a level matching the notice.
func NewLogNotifier(l *logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.WithComponent("notify")
	}
	return &LogNotifier{log: l}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(n Notice) {
	// "level" belongs to the log line itself.
	fields := logger.Fields("title", n.Title, "notice_level", string(n.Level))
	if n.Source != "" {
		fields[logger.FieldURL] = n.Source
	}
	switch n.Level {
	case LevelError:
		l.log.Error(n.Message, fields)
	case LevelWarning:
		l.log.Warn(n.Message, fields)
	default:
		l.log.Info(n.Message, fields)
	}
}

// ConnectionLostMessage is shown when a stream gives up reconnecting.
const ConnectionLostMessage = "Connection lost. Please refresh the page or try logging in again."

// ConnectionLost builds the notice raised when the stream at url has failed
// for good.
func ConnectionLost(url string) Notice {
	return Notice{
		Title:   "Connection lost",
		Message: ConnectionLostMessage,
		Level:   LevelError,
		Source:  url,
	}
}

// String implements fmt.Stringer.
func (n Notice) String() string {
	return fmt.Sprintf("[%s] %s: %s", n.Level, n.Title, n.Message)
}
