package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL          = "wss://api.questloop.app"
	DefaultRestURL        = "https://api.questloop.app"
	DefaultAPITimeout     = 30 * time.Second
	DefaultReconnectDelay = 3 * time.Second
	DefaultPingInterval   = 30 * time.Second
	DefaultPongTimeout    = 90 * time.Second
	DefaultBufferSize     = 256
	DefaultUpdateBuffer   = 64
	DefaultPollInterval   = 5 * time.Second
	DefaultPollTimeout    = 10 * time.Second
)

func (c *SyncConfig) applyDefaults() {
	if c.Server.WSURL == "" {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.RestURL == "" {
		c.Server.RestURL = DefaultRestURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = DefaultAPITimeout
	}

	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PongTimeout == 0 {
		c.Connection.PongTimeout = DefaultPongTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	if c.Router.UpdateBuffer == 0 {
		c.Router.UpdateBuffer = DefaultUpdateBuffer
	}

	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}
}
