package channel

import (
	"fmt"
	"time"

	"github.com/kbukum/streamkit/validation"
)

const (
	// DefaultMaxRetries is the number of transport errors tolerated before
	// the channel fails.
	DefaultMaxRetries = 3
	// DefaultReconnectDelay is the fixed wait before each reconnect attempt.
	DefaultReconnectDelay = time.Second
)

// Config holds the reconnect policy.
type Config struct {
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	return nil
}
