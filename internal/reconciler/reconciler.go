package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/model"
)

// SnapshotSource fetches social snapshots. Implemented by the REST client.
type SnapshotSource interface {
	FetchSocialSnapshot(ctx context.Context, goalID uuid.UUID) (model.SocialSnapshot, error)
}

// ChangeHandler receives snapshots whose content differs from the last
// observed one.
type ChangeHandler interface {
	HandleChange(snapshot model.SocialSnapshot)
}

// ChangeHandlerFunc is a function adapter for ChangeHandler.
type ChangeHandlerFunc func(model.SocialSnapshot)

func (f ChangeHandlerFunc) HandleChange(s model.SocialSnapshot) {
	f(s)
}

// Config holds reconciler configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 5s)
	Timeout  time.Duration // Per-fetch timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Reconciler periodically pulls a social snapshot for the focused goal and
// reports a change only when the snapshot content differs from the last
// observed one. It complements the push channel for data that is not (yet)
// pushed; fetch failures are swallowed and retried on the next tick.
type Reconciler struct {
	cfg     Config
	source  SnapshotSource
	handler ChangeHandler
	logger  *slog.Logger

	enabled atomic.Bool

	// inFlight guards against overlapping polls when the network is slow.
	inFlight atomic.Bool

	mu         sync.Mutex
	goalID     uuid.UUID
	hasGoal    bool
	lastDigest string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Reconciler. It starts enabled but with no focused goal, so
// it idles until SetGoal.
func New(cfg Config, source SnapshotSource, handler ChangeHandler, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	r := &Reconciler{
		cfg:     cfg,
		source:  source,
		handler: handler,
		logger:  logger,
	}
	r.enabled.Store(true)
	return r
}

// SetGoal focuses the reconciler on a goal. Changing the focus resets the
// last observed digest, so the first snapshot of the new goal always
// reports.
func (r *Reconciler) SetGoal(goalID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasGoal && r.goalID == goalID {
		return
	}
	r.goalID = goalID
	r.hasGoal = true
	r.lastDigest = ""
}

// ClearGoal removes the focus; ticks are skipped until SetGoal.
func (r *Reconciler) ClearGoal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasGoal = false
	r.lastDigest = ""
}

// SetEnabled toggles polling without tearing the reconciler down.
func (r *Reconciler) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
}

// Start begins the polling loop.
func (r *Reconciler) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("polling reconciler started", "interval", r.cfg.Interval)

	return nil
}

// Stop cancels the polling loop and waits for any in-flight fetch.
func (r *Reconciler) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("polling reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (r *Reconciler) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick performs one poll cycle, skipping when disabled, unfocused, or a
// previous fetch is still in flight.
func (r *Reconciler) tick() {
	if !r.enabled.Load() {
		return
	}

	r.mu.Lock()
	hasGoal := r.hasGoal
	goalID := r.goalID
	r.mu.Unlock()

	if !hasGoal {
		return
	}

	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("poll still in flight, skipping tick", "goal_id", goalID)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Store(false)
		r.poll(goalID)
	}()
}

// poll fetches one snapshot and reports it if its content changed.
func (r *Reconciler) poll(goalID uuid.UUID) {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
	defer cancel()

	snap, err := r.source.FetchSocialSnapshot(ctx, goalID)
	if err != nil {
		// Transient network noise; the next tick retries.
		r.logger.Debug("snapshot fetch failed", "goal_id", goalID, "error", err)
		return
	}

	digest := snap.Digest()

	r.mu.Lock()
	// The focus may have moved while the fetch was in flight; a stale
	// snapshot must not clobber the new goal's digest.
	if !r.hasGoal || r.goalID != goalID {
		r.mu.Unlock()
		return
	}
	changed := digest != r.lastDigest
	r.lastDigest = digest
	r.mu.Unlock()

	if changed && r.handler != nil {
		r.handler.HandleChange(snap)
	}
}
