// Package sse decodes the text/event-stream wire format.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxEventSize bounds a single line of the stream.
const DefaultMaxEventSize = 1 << 20

// Event represents a single server-sent event.
type Event struct {
	// Type is the value of the "event:" field. Empty for unnamed events.
	Type string
	// Data is the payload. Multi-line data is joined with newlines.
	Data string
	// ID is the value of the last "id:" field seen in the event.
	ID string
	// Retry is the most recent reconnection hint seen on the stream, zero if
	// the server never sent one.
	Retry time.Duration
}

// Reader reads server-sent events from a stream.
type Reader interface {
	// Next returns the next event that carries data. Returns io.EOF when the
	// stream ends.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	first   bool
	retry   time.Duration
}

// NewReader creates an SSE reader from a readable stream.
func NewReader(body io.ReadCloser) Reader {
	return NewReaderSize(body, DefaultMaxEventSize)
}

// NewReaderSize creates an SSE reader whose lines may be up to maxLine bytes.
func NewReaderSize(body io.ReadCloser, maxLine int) Reader {
	s := bufio.NewScanner(body)
	s.Buffer(make([]byte, 0, min(4096, maxLine)), maxLine)
	s.Split(scanLines)
	return &reader{
		scanner: s,
		body:    body,
		first:   true,
	}
}

// Next returns the next event that carries data.
func (r *reader) Next() (*Event, error) {
	var event Event
	var data strings.Builder
	var hasData bool

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if r.first {
			line = strings.TrimPrefix(line, "\uFEFF")
			r.first = false
		}

		// Blank line dispatches the event
		if line == "" {
			if hasData {
				event.Data = data.String()
				event.Retry = r.retry
				return &event, nil
			}
			event = Event{}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			event.Type = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				event.ID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	// A trailing event without the blank-line terminator is incomplete.
	return nil, io.EOF
}

// Close releases the underlying stream.
func (r *reader) Close() error {
	return r.body.Close()
}

// parseLine splits a single line into field and value.
func parseLine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	// Strip single leading space after colon
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}

// scanLines is bufio.ScanLines extended to accept a lone '\r' as a line
// terminator, which the event-stream format allows.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r' found; need one more byte to tell "\r\n" from a bare '\r'.
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
