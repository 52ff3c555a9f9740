package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Manager owns the one logical duplex connection to the platform for an
// authenticated identity. It self-heals: any transport failure schedules a
// reconnect after a fixed delay, with at most one attempt in flight, and
// re-fires the registered OnConnected hooks (subscription replay) on every
// successful connect. There is no retry ceiling; Close is the escape hatch.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// Output to the Message Router. Survives reconnects.
	frames chan RawMessage

	done chan struct{}
	wg   sync.WaitGroup

	mu          sync.Mutex
	state       State
	identity    uuid.UUID
	retryCount  int
	client      *client
	retryTimer  *time.Timer
	dialing     bool
	onConnected []func()
	ctx         context.Context

	framesIn  atomic.Int64
	framesOut atomic.Int64
	dropped   atomic.Int64
}

// NewManager creates a connection Manager. Zero config fields get defaults.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout == 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &Manager{
		cfg:    cfg,
		logger: logger,
		frames: make(chan RawMessage, cfg.BufferSize),
		done:   make(chan struct{}),
		state:  StateDisconnected,
	}
}

// OnConnected registers a hook fired after every successful (re)connect.
// The Subscription Ledger uses this to replay subscribe frames. Register
// before Connect.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	m.onConnected = append(m.onConnected, fn)
	m.mu.Unlock()
}

// Connect opens the connection for an identity. No-op when already
// connecting or connected for the same identity. Transport failures are
// non-fatal: the manager keeps retrying until Close.
func (m *Manager) Connect(ctx context.Context, identity uuid.UUID) error {
	if identity == uuid.Nil {
		return ErrMissingIdentity
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	if (m.state == StateConnecting || m.state == StateConnected) && m.identity == identity {
		m.mu.Unlock()
		return nil
	}
	m.identity = identity
	m.ctx = ctx
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.mu.Unlock()

	m.attempt()
	return nil
}

// Send marshals and writes a frame when connected; otherwise the frame is
// silently dropped. Best-effort signaling, not guaranteed delivery.
func (m *Manager) Send(frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	m.mu.Lock()
	cl := m.client
	state := m.state
	m.mu.Unlock()

	if state != StateConnected || cl == nil {
		m.logger.Debug("not connected, dropping outbound frame", "state", state)
		return nil
	}

	if err := cl.send(data); err != nil {
		return err
	}
	m.framesOut.Add(1)
	return nil
}

// Pong records a heartbeat acknowledgement. The router calls this when a
// pong frame arrives.
func (m *Manager) Pong() {
	m.mu.Lock()
	cl := m.client
	m.mu.Unlock()
	if cl != nil {
		cl.pong()
	}
}

// Messages returns the inbound frame channel consumed by the router.
func (m *Manager) Messages() <-chan RawMessage {
	return m.frames
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns connection statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	state := m.state
	retries := m.retryCount
	m.mu.Unlock()

	return Stats{
		State:      state,
		RetryCount: retries,
		FramesIn:   m.framesIn.Load(),
		FramesOut:  m.framesOut.Load(),
		Dropped:    m.dropped.Load(),
	}
}

// Close cancels any pending reconnect, closes the transport, and moves to
// the terminal Closed state. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	cl := m.client
	m.client = nil
	m.mu.Unlock()

	close(m.done)
	if cl != nil {
		cl.close()
	}
	m.wg.Wait()

	m.logger.Info("connection manager closed")
	return nil
}

// attempt performs one connect attempt. Failure schedules a retry.
func (m *Manager) attempt() {
	m.mu.Lock()
	if m.state == StateClosed || m.dialing {
		m.mu.Unlock()
		return
	}
	m.dialing = true
	m.state = StateConnecting
	prev := m.client
	m.client = nil
	identity := m.identity
	ctx := m.ctx
	m.mu.Unlock()

	// At most one live transport: discard the previous one first.
	if prev != nil {
		prev.close()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cl := newClient(ClientConfig{
		URL:          m.cfg.WSURL + "/ws/" + identity.String(),
		Token:        m.cfg.Token,
		PingInterval: m.cfg.PingInterval,
		PongTimeout:  m.cfg.PongTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}, m.logger.With("identity", identity))

	err := cl.connect(ctx)

	m.mu.Lock()
	m.dialing = false
	if m.state == StateClosed {
		m.mu.Unlock()
		cl.close()
		return
	}
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("connect failed", "error", err)
		m.scheduleReconnect()
		return
	}
	m.client = cl
	m.state = StateConnected
	m.retryCount = 0
	hooks := append([]func(){}, m.onConnected...)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watch(cl)

	m.logger.Info("connected", "identity", identity)

	for _, fn := range hooks {
		fn()
	}
}

// scheduleReconnect arms the retry timer. At most one timer is pending.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.state == StateClosed || m.retryTimer != nil {
		m.mu.Unlock()
		return
	}
	m.state = StateReconnecting
	m.retryCount++
	attempt := m.retryCount
	delay := m.cfg.ReconnectDelay
	m.retryTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.retryTimer = nil
		m.mu.Unlock()
		m.attempt()
	})
	m.mu.Unlock()

	m.logger.Info("reconnect scheduled", "delay", delay, "attempt", attempt)
}

// watch forwards frames from one transport and triggers reconnection when
// it fails. One watch goroutine exists per live transport.
func (m *Manager) watch(cl *client) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return

		case <-cl.done:
			// Transport discarded, typically replaced by a connect for a
			// different identity. transportClosed decides whether a
			// reconnect is warranted.
			m.transportClosed(cl)
			return

		case err := <-cl.errors:
			m.logger.Warn("transport closed", "error", err)
			m.transportClosed(cl)
			return

		case msg := <-cl.messages:
			m.framesIn.Add(1)
			select {
			case m.frames <- msg:
			case <-m.done:
				return
			default:
				m.dropped.Add(1)
				m.logger.Warn("inbound buffer full, dropping frame")
			}
		}
	}
}

// transportClosed discards a dead transport and schedules a reconnect.
// A transport that is no longer the current one (superseded by a connect
// for another identity) must not tear down its replacement, so only the
// current client's failure triggers a reconnect.
func (m *Manager) transportClosed(cl *client) {
	cl.close()

	m.mu.Lock()
	current := m.client == cl
	if current {
		m.client = nil
	}
	closed := m.state == StateClosed
	m.mu.Unlock()

	if closed || !current {
		return
	}
	m.scheduleReconnect()
}
