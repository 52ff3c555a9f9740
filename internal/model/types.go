package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the category of a notification.
type Kind string

const (
	KindFollow      Kind = "follow"
	KindReaction    Kind = "reaction"
	KindComment     Kind = "comment"
	KindBoost       Kind = "boost"
	KindMilestone   Kind = "milestone"
	KindStruggle    Kind = "struggle"
	KindAchievement Kind = "achievement"
	KindSwapRequest Kind = "swap_request"
	KindSwapAccept  Kind = "swap_accepted"
	KindTimeCapsule Kind = "time_capsule"
)

// Known returns true if the kind is one the client recognizes.
// Unknown kinds are still stored and displayed generically.
func (k Kind) Known() bool {
	switch k {
	case KindFollow, KindReaction, KindComment, KindBoost, KindMilestone,
		KindStruggle, KindAchievement, KindSwapRequest, KindSwapAccept,
		KindTimeCapsule:
		return true
	}
	return false
}

// Notification is a single user-visible notification. Immutable once
// received except for the Read flag, which flips exactly once.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	Kind      Kind            `json:"kind"`
	Title     string          `json:"title"`
	Message   string          `json:"message,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"` // navigation context (goal id, actor, etc.)
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// SocialSnapshot is a point-in-time summary of aggregate social counts for
// one goal. Snapshots are replaced wholesale on each poll, never merged.
type SocialSnapshot struct {
	GoalID    uuid.UUID      `json:"goal_id"`
	Reactions map[string]int `json:"reactions"` // reaction type ("fire", "heart", ...) -> count
	Comments  int            `json:"comments"`
	Boosts    int            `json:"boosts"`
	Members   int            `json:"members"`
}

// Digest returns a content hash of the snapshot for change detection.
// encoding/json writes struct fields in declaration order and sorts map
// keys, so the serialized form is canonical.
func (s SocialSnapshot) Digest() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Marshal of these field types cannot fail; treat as empty.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
