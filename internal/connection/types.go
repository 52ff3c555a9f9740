package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrMissingIdentity = errors.New("identity required to connect")
)

// State is the lifecycle state of the managed connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed" // terminal, only via Close()
)

// RawMessage is a raw inbound frame with receive metadata.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Outbound frame shapes. The server treats duplicate subscribes as
// idempotent, which is what makes replay-on-reconnect safe.

type pingFrame struct {
	Type string `json:"type"`
}

type goalFrame struct {
	Type   string    `json:"type"`
	GoalID uuid.UUID `json:"goal_id"`
}

// Ping returns the heartbeat frame.
func Ping() any {
	return pingFrame{Type: "ping"}
}

// SubscribeGoal returns a subscribe frame for a goal topic.
func SubscribeGoal(goalID uuid.UUID) any {
	return goalFrame{Type: "subscribe_goal", GoalID: goalID}
}

// UnsubscribeGoal returns an unsubscribe frame for a goal topic.
func UnsubscribeGoal(goalID uuid.UUID) any {
	return goalFrame{Type: "unsubscribe_goal", GoalID: goalID}
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL          string        // Full WebSocket URL including the identity path
	Token        string        // Bearer token (empty = no auth header)
	PingInterval time.Duration // Heartbeat send interval
	PongTimeout  time.Duration // Max time without a pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// Config configures the connection Manager.
type Config struct {
	WSURL          string        // Base WebSocket URL; /ws/<identity> is appended
	Token          string        // Bearer token for the handshake
	ReconnectDelay time.Duration // Fixed wait between reconnect attempts
	PingInterval   time.Duration // Heartbeat send interval
	PongTimeout    time.Duration // Max time without a pong before forcing a reconnect
	WriteTimeout   time.Duration // Write deadline for sends
	BufferSize     int           // Inbound frame channel capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay: 3 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    90 * time.Second,
		WriteTimeout:   5 * time.Second,
		BufferSize:     256,
	}
}

// Stats provides observability into the managed connection.
type Stats struct {
	State      State
	RetryCount int
	FramesIn   int64
	FramesOut  int64
	Dropped    int64
}
