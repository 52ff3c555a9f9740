package store

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questloop/livesync/internal/model"
)

// recordingAcker records acknowledged IDs.
type recordingAcker struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (a *recordingAcker) AcknowledgeRead(_ context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append(a.ids, id)
	return nil
}

func (a *recordingAcker) acked() []uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uuid.UUID(nil), a.ids...)
}

func notif(read bool, createdAt time.Time) model.Notification {
	return model.Notification{
		ID:        uuid.New(),
		Kind:      model.KindReaction,
		Title:     "test",
		Read:      read,
		CreatedAt: createdAt,
	}
}

// checkInvariant asserts unread count == |{n : !n.Read}|.
func checkInvariant(t *testing.T, s *Store) {
	t.Helper()
	unread := 0
	for _, n := range s.Notifications() {
		if !n.Read {
			unread++
		}
	}
	require.Equal(t, unread, s.UnreadCount(), "unread count invariant violated")
}

func TestStore_LoadRecomputesUnread(t *testing.T) {
	s := New(nil, nil)
	now := time.Now()

	s.Load([]model.Notification{
		notif(false, now.Add(-time.Minute)),
		notif(true, now.Add(-2*time.Minute)),
		notif(false, now),
	})

	assert.Equal(t, 2, s.UnreadCount())
	checkInvariant(t, s)

	// Wholesale replace.
	s.Load([]model.Notification{notif(true, now)})
	assert.Equal(t, 0, s.UnreadCount())
	assert.Len(t, s.Notifications(), 1)
	checkInvariant(t, s)
}

func TestStore_LoadSortsNewestFirst(t *testing.T) {
	s := New(nil, nil)
	now := time.Now()

	oldest := notif(false, now.Add(-2*time.Hour))
	middle := notif(false, now.Add(-time.Hour))
	newest := notif(false, now)

	s.Load([]model.Notification{middle, oldest, newest})

	got := s.Notifications()
	require.Len(t, got, 3)
	assert.Equal(t, newest.ID, got[0].ID)
	assert.Equal(t, middle.ID, got[1].ID)
	assert.Equal(t, oldest.ID, got[2].ID)
}

func TestStore_IngestPushedPrepends(t *testing.T) {
	s := New(nil, nil)
	now := time.Now()

	n1 := notif(false, now.Add(-time.Minute))
	s.Load([]model.Notification{n1})
	require.Equal(t, 1, s.UnreadCount())

	n2 := notif(false, now)
	s.IngestPushed(n2)

	got := s.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, n2.ID, got[0].ID, "pushed notification should be first")
	assert.Equal(t, n1.ID, got[1].ID)
	assert.Equal(t, 2, s.UnreadCount())
	checkInvariant(t, s)
}

func TestStore_IngestPushedIdempotent(t *testing.T) {
	s := New(nil, nil)

	n := notif(false, time.Now())
	s.IngestPushed(n)
	s.IngestPushed(n)
	s.IngestPushed(n)

	assert.Len(t, s.Notifications(), 1)
	assert.Equal(t, 1, s.UnreadCount())
	checkInvariant(t, s)
}

func TestStore_IngestPushedReadNotification(t *testing.T) {
	s := New(nil, nil)

	s.IngestPushed(notif(true, time.Now()))

	assert.Len(t, s.Notifications(), 1)
	assert.Equal(t, 0, s.UnreadCount())
	checkInvariant(t, s)
}

func TestStore_MarkReadTwice(t *testing.T) {
	acker := &recordingAcker{}
	s := New(acker, nil)
	now := time.Now()

	n1 := notif(false, now.Add(-time.Minute))
	s.Load([]model.Notification{n1})
	s.IngestPushed(notif(false, now))
	require.Equal(t, 2, s.UnreadCount())

	ctx := context.Background()
	s.MarkRead(ctx, n1.ID)
	assert.Equal(t, 1, s.UnreadCount())

	// Second call observes Read == true and is a no-op.
	s.MarkRead(ctx, n1.ID)
	assert.Equal(t, 1, s.UnreadCount())
	checkInvariant(t, s)

	// Exactly one acknowledgement, despite two calls.
	assert.Eventually(t, func() bool {
		return len(acker.acked()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStore_MarkReadUnknownID(t *testing.T) {
	s := New(nil, nil)
	s.Load([]model.Notification{notif(false, time.Now())})

	s.MarkRead(context.Background(), uuid.New())

	assert.Equal(t, 1, s.UnreadCount())
	checkInvariant(t, s)
}

func TestStore_MarkAllRead(t *testing.T) {
	acker := &recordingAcker{}
	s := New(acker, nil)
	now := time.Now()

	s.Load([]model.Notification{
		notif(false, now),
		notif(true, now.Add(-time.Minute)),
		notif(false, now.Add(-2*time.Minute)),
	})
	require.Equal(t, 2, s.UnreadCount())

	s.MarkAllRead(context.Background())

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.Notifications() {
		assert.True(t, n.Read)
	}
	checkInvariant(t, s)

	// One acknowledgement per previously-unread notification.
	assert.Eventually(t, func() bool {
		return len(acker.acked()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStore_WatchSeesMutations(t *testing.T) {
	s := New(nil, nil)
	events := s.Watch()

	s.IngestPushed(notif(false, time.Now()))

	select {
	case e := <-events:
		assert.Equal(t, 1, e.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no event after ingest")
	}
}

// TestStore_InvariantUnderRandomOps drives the store through a random
// operation sequence and checks the unread invariant after every step.
func TestStore_InvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(nil, nil)
	ctx := context.Background()

	var known []uuid.UUID
	now := time.Now()

	for i := 0; i < 500; i++ {
		switch rng.Intn(5) {
		case 0:
			ns := make([]model.Notification, rng.Intn(5))
			for j := range ns {
				ns[j] = notif(rng.Intn(2) == 0, now.Add(-time.Duration(rng.Intn(3600))*time.Second))
				known = append(known, ns[j].ID)
			}
			s.Load(ns)
			// After a wholesale replace, only the loaded IDs remain.
			known = known[len(known)-len(ns):]
		case 1:
			n := notif(rng.Intn(2) == 0, now.Add(-time.Duration(rng.Intn(3600))*time.Second))
			s.IngestPushed(n)
			known = append(known, n.ID)
		case 2:
			// Re-ingest a stored notification: must be a no-op.
			if stored := s.Notifications(); len(stored) > 0 {
				s.IngestPushed(stored[rng.Intn(len(stored))])
			}
		case 3:
			if len(known) > 0 {
				s.MarkRead(ctx, known[rng.Intn(len(known))])
			}
		case 4:
			if rng.Intn(10) == 0 {
				s.MarkAllRead(ctx)
			}
		}
		checkInvariant(t, s)
	}
}

// TestStore_ConcurrentPushAndMarkRead exercises the push/user-action
// interleaving the store must survive.
func TestStore_ConcurrentPushAndMarkRead(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()
	now := time.Now()

	ns := make([]model.Notification, 100)
	for i := range ns {
		ns[i] = notif(false, now.Add(time.Duration(i)*time.Millisecond))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, n := range ns {
			s.IngestPushed(n)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			// Races against ingestion; not-yet-ingested IDs are no-ops.
			s.MarkRead(ctx, ns[rand.Intn(len(ns))].ID)
		}
	}()
	wg.Wait()

	assert.Len(t, s.Notifications(), 100)
	checkInvariant(t, s)
}
