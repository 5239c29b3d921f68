package transport

import (
	"fmt"
	"time"

	"github.com/kbukum/streamkit/transport/sse"
	"github.com/kbukum/streamkit/validation"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP provider.
type Config struct {
	// Timeout bounds the wait for response headers. The stream itself is not
	// subject to a deadline. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// MaxEventSize bounds a single line of the stream. Defaults to 1 MiB.
	MaxEventSize int `yaml:"max_event_size" mapstructure:"max_event_size" validate:"gte=0"`

	// Headers are sent with every connection.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth is applied to credentialed connections.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxEventSize <= 0 {
		c.MaxEventSize = sse.DefaultMaxEventSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.TLS.Validate()
}
