package config

import "time"

// SyncConfig is the root configuration for the live sync core.
type SyncConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Router     RouterConfig     `yaml:"router"`
	Poller     PollerConfig     `yaml:"poller"`
}

// ServerConfig holds the platform endpoints.
type ServerConfig struct {
	WSURL   string        `yaml:"ws_url"`   // base URL; /ws/<identity> is appended per connection
	RestURL string        `yaml:"rest_url"` // REST API base URL
	Token   string        `yaml:"token"`    // bearer token, usually ${QUESTLOOP_TOKEN}
	Timeout time.Duration `yaml:"timeout"`  // REST request timeout
}

// ConnectionConfig holds WebSocket connection manager settings.
type ConnectionConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"` // wait between reconnect attempts
	PingInterval   time.Duration `yaml:"ping_interval"`   // heartbeat send interval
	PongTimeout    time.Duration `yaml:"pong_timeout"`    // max silence before forcing a reconnect
	BufferSize     int           `yaml:"buffer_size"`     // inbound frame channel capacity
}

// RouterConfig holds message router settings.
type RouterConfig struct {
	UpdateBuffer int `yaml:"update_buffer"` // fan-out update channel capacity
}

// PollerConfig holds polling reconciler settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"` // snapshot poll interval
	Timeout  time.Duration `yaml:"timeout"`  // per-fetch timeout
}
