package ledger

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/connection"
)

// FrameSender sends outbound frames on a best-effort basis. Implemented by
// the Connection Manager; sends while disconnected are dropped, which is
// fine because the Ledger replays on every reconnect.
type FrameSender interface {
	Send(frame any) error
}

// Ledger tracks which goal topics the client wants push events for. The
// set survives reconnects: the Connection Manager fires Replay on every
// successful connect, and the server treats duplicate subscribes as
// idempotent.
type Ledger struct {
	sender FrameSender
	logger *slog.Logger

	mu     sync.Mutex
	topics map[uuid.UUID]struct{}
}

// New creates a Subscription Ledger.
func New(sender FrameSender, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		sender: sender,
		logger: logger,
		topics: make(map[uuid.UUID]struct{}),
	}
}

// Subscribe adds a goal topic and sends the subscribe frame. Idempotent:
// subscribing an already-tracked topic does nothing.
func (l *Ledger) Subscribe(goalID uuid.UUID) {
	l.mu.Lock()
	if _, ok := l.topics[goalID]; ok {
		l.mu.Unlock()
		return
	}
	l.topics[goalID] = struct{}{}
	l.mu.Unlock()

	if err := l.sender.Send(connection.SubscribeGoal(goalID)); err != nil {
		l.logger.Warn("failed to send subscribe frame", "goal_id", goalID, "error", err)
	}
}

// Unsubscribe removes a goal topic and sends the unsubscribe frame.
// Idempotent: removing an untracked topic does nothing.
func (l *Ledger) Unsubscribe(goalID uuid.UUID) {
	l.mu.Lock()
	if _, ok := l.topics[goalID]; !ok {
		l.mu.Unlock()
		return
	}
	delete(l.topics, goalID)
	l.mu.Unlock()

	if err := l.sender.Send(connection.UnsubscribeGoal(goalID)); err != nil {
		l.logger.Warn("failed to send unsubscribe frame", "goal_id", goalID, "error", err)
	}
}

// Replay re-sends one subscribe frame per tracked topic. Registered as the
// Connection Manager's OnConnected hook so subscriptions are never lost
// across a reconnect.
func (l *Ledger) Replay() {
	l.mu.Lock()
	topics := make([]uuid.UUID, 0, len(l.topics))
	for goalID := range l.topics {
		topics = append(topics, goalID)
	}
	l.mu.Unlock()

	for _, goalID := range topics {
		if err := l.sender.Send(connection.SubscribeGoal(goalID)); err != nil {
			l.logger.Warn("failed to replay subscribe frame", "goal_id", goalID, "error", err)
		}
	}

	if len(topics) > 0 {
		l.logger.Info("replayed subscriptions", "count", len(topics))
	}
}

// Topics returns a snapshot of the tracked goal topics.
func (l *Ledger) Topics() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	topics := make([]uuid.UUID, 0, len(l.topics))
	for goalID := range l.topics {
		topics = append(topics, goalID)
	}
	return topics
}
