package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/streamkit/channel"
	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/notify"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/transport"
)

// Config is the streamwatch configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the event stream to watch.
	URL string `yaml:"url" mapstructure:"url"`
	// Events lists the event names to subscribe to. Defaults to "message".
	Events []string `yaml:"events" mapstructure:"events"`
	// NoticeTTL controls how long a connection-lost notice stays on the board.
	NoticeTTL time.Duration `yaml:"notice_ttl" mapstructure:"notice_ttl"`

	Channel       channel.Config       `yaml:"channel" mapstructure:"channel"`
	Transport     transport.Config     `yaml:"transport" mapstructure:"transport"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if len(c.Events) == 0 {
		c.Events = []string{transport.DefaultEventName}
	}
	if c.NoticeTTL == 0 {
		c.NoticeTTL = notify.DefaultTTL
	}
	c.Channel.ApplyDefaults()
	c.Transport.ApplyDefaults()
	if c.Server.Port == 0 {
		c.Server.Port = server.DefaultPort
	}
	c.Server.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.URL == "" {
		return fmt.Errorf("config.url is required")
	}
	if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config.url must be an http(s) URL (got: %s)", c.URL)
	}
	if c.NoticeTTL < 0 {
		return fmt.Errorf("config.notice_ttl must be positive (got: %s)", c.NoticeTTL)
	}
	for _, v := range []interface{ Validate() error }{&c.Channel, &c.Transport, &c.Server, &c.Observability} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
