package notify

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kbukum/streamkit/logger"
)

func TestConnectionLost(t *testing.T) {
	n := ConnectionLost("http://localhost/events")
	if n.Level != LevelError {
		t.Errorf("level = %q, want error", n.Level)
	}
	if n.Message != ConnectionLostMessage {
		t.Errorf("message = %q", n.Message)
	}
	if n.Source != "http://localhost/events" {
		t.Errorf("source = %q", n.Source)
	}
	if !strings.Contains(n.String(), "Connection lost") {
		t.Errorf("String() = %q", n.String())
	}
}

func TestMulti(t *testing.T) {
	var got []string
	m := Multi{
		Func(func(n Notice) { got = append(got, "a:"+n.Title) }),
		nil,
		Func(func(n Notice) { got = append(got, "b:"+n.Title) }),
	}
	m.Notify(Notice{Title: "t"})

	if len(got) != 2 || got[0] != "a:t" || got[1] != "b:t" {
		t.Errorf("got %v", got)
	}
}

func TestLogNotifier(t *testing.T) {
	tests := []struct {
		level     Level
		wantLevel string
	}{
		{LevelError, "error"},
		{LevelWarning, "warn"},
		{LevelInfo, "info"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			l := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)
			NewLogNotifier(l).Notify(Notice{Title: "t", Message: "m", Level: tt.level, Source: "http://x"})

			var entry map[string]interface{}
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("decode: %v (%q)", err, buf.String())
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["notice_level"] != string(tt.level) {
				t.Errorf("notice_level = %v, want %s", entry["notice_level"], tt.level)
			}
			if entry["message"] != "m" || entry[logger.FieldURL] != "http://x" {
				t.Errorf("unexpected entry: %v", entry)
			}
		})
	}
}
