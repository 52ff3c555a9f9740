package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *SyncConfig) Validate() error {
	if !strings.HasPrefix(c.Server.WSURL, "ws://") && !strings.HasPrefix(c.Server.WSURL, "wss://") {
		return fmt.Errorf("server.ws_url must start with ws:// or wss://, got %q", c.Server.WSURL)
	}
	if !strings.HasPrefix(c.Server.RestURL, "http://") && !strings.HasPrefix(c.Server.RestURL, "https://") {
		return fmt.Errorf("server.rest_url must start with http:// or https://, got %q", c.Server.RestURL)
	}
	if c.Server.Timeout <= 0 {
		return errors.New("server.timeout must be positive")
	}

	if c.Connection.ReconnectDelay <= 0 {
		return errors.New("connection.reconnect_delay must be positive")
	}
	if c.Connection.PingInterval <= 0 {
		return errors.New("connection.ping_interval must be positive")
	}
	if c.Connection.PongTimeout <= c.Connection.PingInterval {
		return errors.New("connection.pong_timeout must exceed connection.ping_interval")
	}
	if c.Connection.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	if c.Router.UpdateBuffer < 1 {
		return errors.New("router.update_buffer must be >= 1")
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive")
	}
	if c.Poller.Timeout <= 0 {
		return errors.New("poller.timeout must be positive")
	}

	return nil
}
