// pkg/ws/config.go
package ws

import (
	"fmt"
	"time"
)

// Config holds connection parameters for a broadcast WebSocket session.
// Timeouts belong to the session, not to the decoding core.
type Config struct {
	URL               string        `mapstructure:"url"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
}

// ApplyDefaults applies fallback defaults if values are unset.
func (c *Config) ApplyDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 20 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 3 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	switch {
	case c.URL == "":
		return fmt.Errorf("ws: URL is required")
	case c.HeartbeatInterval >= c.ReadTimeout:
		return fmt.Errorf("ws: heartbeat_interval must be shorter than read_timeout")
	default:
		return nil
	}
}
