package router

import (
	"encoding/json"
	"time"

	"github.com/questloop/livesync/internal/model"
)

// envelope is the tagged wrapper every inbound frame carries.
type envelope struct {
	Type string `json:"type"`
}

// notificationFrame carries a full notification record.
type notificationFrame struct {
	Type         string             `json:"type"`
	Notification model.Notification `json:"notification"`
}

// Update is a fan-out event re-emitted for interested consumers. The router
// does not interpret the payload; consumers typically refetch on receipt.
type Update struct {
	Kind       string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// fanOutKinds are cross-cutting refresh signals the router re-emits as
// generic updates rather than handling itself.
var fanOutKinds = map[string]bool{
	"goal_updated":    true,
	"goal_completed":  true,
	"board_updated":   true,
	"member_joined":   true,
	"member_left":     true,
	"comment_added":   true,
	"comment_deleted": true,
}

// Config holds message router configuration.
type Config struct {
	UpdateBuffer int // fan-out update channel capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UpdateBuffer: 64,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64
	FramesRouted   int64
	ParseErrors    int64
	UnknownKinds   int64
	UpdatesDropped int64
}
