package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/model"
)

// ackTimeout bounds the background read acknowledgement call.
const ackTimeout = 10 * time.Second

// watchBuffer is the capacity of each watcher channel.
const watchBuffer = 16

// Acker delivers read acknowledgements to the backend. Implemented by the
// REST client. Calls are fire-and-forget from the store's perspective.
type Acker interface {
	AcknowledgeRead(ctx context.Context, id uuid.UUID) error
}

// Event is emitted to watchers after every effective mutation.
type Event struct {
	UnreadCount int
}

// Store is the single source of truth for notification state. All
// mutations go through its operation set, which is what keeps the unread
// count invariant enforceable: after every operation, UnreadCount equals
// the number of stored notifications with Read == false.
type Store struct {
	acker  Acker
	logger *slog.Logger

	mu            sync.Mutex
	notifications []model.Notification // newest-first by CreatedAt
	present       map[uuid.UUID]struct{}
	unread        int
	watchers      []chan Event
}

// New creates a Notification Store. The acker may be nil, in which case
// read acknowledgements are skipped (useful in tests).
func New(acker Acker, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		acker:   acker,
		logger:  logger,
		present: make(map[uuid.UUID]struct{}),
	}
}

// Load replaces the whole collection, used for the initial page load. The
// unread count is recomputed from scratch.
func (s *Store) Load(ns []model.Notification) {
	sorted := append([]model.Notification(nil), ns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	s.mu.Lock()
	s.notifications = sorted
	s.present = make(map[uuid.UUID]struct{}, len(sorted))
	s.unread = 0
	for _, n := range sorted {
		s.present[n.ID] = struct{}{}
		if !n.Read {
			s.unread++
		}
	}
	s.notifyLocked()
	s.mu.Unlock()

	s.logger.Debug("notifications loaded", "count", len(sorted), "unread", s.UnreadCount())
}

// IngestPushed upserts a push-delivered notification. Idempotent by ID: an
// already-present ID is a complete no-op, so duplicate delivery never
// double-counts. New notifications are prepended, matching the server's
// newest-first delivery order.
func (s *Store) IngestPushed(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.present[n.ID]; ok {
		return
	}

	s.notifications = append([]model.Notification{n}, s.notifications...)
	s.present[n.ID] = struct{}{}
	if !n.Read {
		s.unread++
	}
	s.notifyLocked()
}

// MarkRead flips a notification to read and acknowledges the backend. The
// flip happens at most once: a second call for the same ID observes
// Read == true and does nothing. The acknowledgement is fire-and-forget;
// the local state is not rolled back if it fails.
func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	flipped := false
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			if s.unread > 0 {
				s.unread--
			}
			flipped = true
			s.notifyLocked()
		}
		break
	}
	s.mu.Unlock()

	if !flipped || s.acker == nil {
		return
	}

	go func() {
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
		defer cancel()
		if err := s.acker.AcknowledgeRead(ackCtx, id); err != nil {
			s.logger.Warn("read acknowledgement failed", "id", id, "error", err)
		}
	}()
}

// MarkAllRead marks every unread notification read, expressed as repeated
// MarkRead calls so the invariant is enforced in exactly one place.
func (s *Store) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, s.unread)
	for _, n := range s.notifications {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.MarkRead(ctx, id)
	}
}

// Notifications returns a copy of the collection, newest first.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification(nil), s.notifications...)
}

// UnreadCount returns the derived unread count.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Watch returns a channel that receives an Event after every effective
// mutation. Slow watchers miss events rather than blocking mutations; the
// Event carries the current count, so a later event supersedes a missed one.
func (s *Store) Watch() <-chan Event {
	ch := make(chan Event, watchBuffer)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

// notifyLocked fans an event out to all watchers. Caller holds s.mu.
func (s *Store) notifyLocked() {
	event := Event{UnreadCount: s.unread}
	for _, ch := range s.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}
