package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/questloop/livesync/internal/connection"
	"github.com/questloop/livesync/internal/model"
)

// NotificationSink receives push-delivered notifications. Implemented by
// the Notification Store.
type NotificationSink interface {
	IngestPushed(model.Notification)
}

// Router parses raw inbound frames and dispatches them by kind. It holds
// no state and performs no retries: a malformed frame is dropped and
// logged, never propagated.
type Router struct {
	cfg    Config
	logger *slog.Logger

	// Input from the Connection Manager
	input <-chan connection.RawMessage

	sink NotificationSink
	pong func()

	// Output to UI-layer consumers
	updates chan Update

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	received       int64
	routed         int64
	parseErrors    int64
	unknownKinds   int64
	updatesDropped int64
}

// NewRouter creates a Message Router.
func NewRouter(cfg Config, input <-chan connection.RawMessage, sink NotificationSink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UpdateBuffer == 0 {
		cfg.UpdateBuffer = DefaultConfig().UpdateBuffer
	}

	return &Router{
		cfg:     cfg,
		logger:  logger,
		input:   input,
		sink:    sink,
		updates: make(chan Update, cfg.UpdateBuffer),
	}
}

// OnPong registers the heartbeat acknowledgement hook. The Connection
// Manager uses this to track transport liveness.
func (r *Router) OnPong(fn func()) {
	r.pong = fn
}

// Start begins routing frames from the input channel.
func (r *Router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("message router started", "update_buffer", r.cfg.UpdateBuffer)

	return nil
}

// Stop gracefully shuts down the router.
func (r *Router) Stop(ctx context.Context) error {
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
		// Safe to close only once the route loop has exited; it sends on
		// updates while running.
		close(r.updates)
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	return nil
}

// Updates returns the fan-out update channel.
func (r *Router) Updates() <-chan Update {
	return r.updates
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		FramesReceived: r.received,
		FramesRouted:   r.routed,
		ParseErrors:    r.parseErrors,
		UnknownKinds:   r.unknownKinds,
		UpdatesDropped: r.updatesDropped,
	}
}

// routeLoop is the main routing goroutine. Frames are dispatched in
// receipt order.
func (r *Router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(raw)
		}
	}
}

// route parses and dispatches a single frame.
func (r *Router) route(raw connection.RawMessage) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	var env envelope
	if err := json.Unmarshal(raw.Data, &env); err != nil || env.Type == "" {
		r.logger.Warn("dropping malformed frame", "error", err)
		r.mu.Lock()
		r.parseErrors++
		r.mu.Unlock()
		return
	}

	switch {
	case env.Type == "notification":
		var frame notificationFrame
		if err := json.Unmarshal(raw.Data, &frame); err != nil {
			r.logger.Warn("failed to parse notification frame", "error", err)
			r.mu.Lock()
			r.parseErrors++
			r.mu.Unlock()
			return
		}
		r.sink.IngestPushed(frame.Notification)

	case env.Type == "pong":
		if r.pong != nil {
			r.pong()
		}

	case fanOutKinds[env.Type]:
		update := Update{
			Kind:       env.Type,
			Payload:    raw.Data,
			ReceivedAt: raw.ReceivedAt,
		}
		select {
		case r.updates <- update:
		default:
			r.logger.Warn("update buffer full, dropping", "kind", env.Type)
			r.mu.Lock()
			r.updatesDropped++
			r.mu.Unlock()
			return
		}

	default:
		r.logger.Debug("unknown frame kind", "kind", env.Type)
		r.mu.Lock()
		r.unknownKinds++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.routed++
	r.mu.Unlock()
}
