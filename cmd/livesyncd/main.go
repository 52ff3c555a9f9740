package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/questloop/livesync/internal/api"
	"github.com/questloop/livesync/internal/config"
	"github.com/questloop/livesync/internal/connection"
	"github.com/questloop/livesync/internal/ledger"
	"github.com/questloop/livesync/internal/model"
	"github.com/questloop/livesync/internal/reconciler"
	"github.com/questloop/livesync/internal/router"
	"github.com/questloop/livesync/internal/store"
	"github.com/questloop/livesync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/livesync.local.yaml", "path to config file")
	identityStr := flag.String("identity", "", "identity UUID for the connection")
	goalStr := flag.String("goal", "", "goal UUID to subscribe and poll (optional)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting livesyncd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	identity, err := uuid.Parse(*identityStr)
	if err != nil {
		logger.Error("invalid identity", "error", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"ws_url", cfg.Server.WSURL,
		"rest_url", cfg.Server.RestURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create REST client
	apiClient := api.NewClient(
		cfg.Server.RestURL,
		cfg.Server.Token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetries(3, time.Second),
	)

	// Notification store, backed by the REST client for read acks
	st := store.New(apiClient, logger)

	// Initial load from REST so unread counts are correct before the
	// push channel delivers anything
	logger.Info("loading notifications")
	ns, err := apiClient.FetchNotifications(ctx)
	if err != nil {
		logger.Error("failed to load notifications", "error", err)
		os.Exit(1)
	}
	st.Load(ns)
	logger.Info("notifications loaded", "count", len(ns), "unread", st.UnreadCount())

	// Connection manager
	connCfg := connection.DefaultConfig()
	connCfg.WSURL = cfg.Server.WSURL
	connCfg.Token = cfg.Server.Token
	if cfg.Connection.ReconnectDelay > 0 {
		connCfg.ReconnectDelay = cfg.Connection.ReconnectDelay
	}
	if cfg.Connection.PingInterval > 0 {
		connCfg.PingInterval = cfg.Connection.PingInterval
	}
	if cfg.Connection.PongTimeout > 0 {
		connCfg.PongTimeout = cfg.Connection.PongTimeout
	}
	if cfg.Connection.BufferSize > 0 {
		connCfg.BufferSize = cfg.Connection.BufferSize
	}
	manager := connection.NewManager(connCfg, logger)
	defer manager.Close()

	// Subscription ledger replays goal topics after every (re)connect
	led := ledger.New(manager, logger)
	manager.OnConnected(led.Replay)

	// Message router: notifications feed the store, pongs feed liveness
	rt := router.NewRouter(
		router.Config{UpdateBuffer: cfg.Router.UpdateBuffer},
		manager.Messages(),
		st,
		logger,
	)
	rt.OnPong(manager.Pong)

	// Polling reconciler fills the gaps the push channel doesn't cover
	rec := reconciler.New(
		reconciler.Config{Interval: cfg.Poller.Interval, Timeout: cfg.Poller.Timeout},
		apiClient,
		reconciler.ChangeHandlerFunc(func(s model.SocialSnapshot) {
			logger.Info("social snapshot changed",
				"goal_id", s.GoalID,
				"comments", s.Comments,
				"boosts", s.Boosts,
				"members", s.Members,
			)
		}),
		logger,
	)

	if err := rt.Start(ctx); err != nil {
		logger.Error("failed to start router", "error", err)
		os.Exit(1)
	}
	if err := rec.Start(ctx); err != nil {
		logger.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}

	if err := manager.Connect(ctx, identity); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// Optional goal focus: subscribe the push topic and point the poller
	if *goalStr != "" {
		goalID, err := uuid.Parse(*goalStr)
		if err != nil {
			logger.Error("invalid goal", "error", err)
			os.Exit(1)
		}
		led.Subscribe(goalID)
		rec.SetGoal(goalID)
		logger.Info("goal focused", "goal_id", goalID)
	}

	logger.Info("livesyncd running", "identity", identity)

	// Consume store events and routed updates until shutdown
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events := st.Watch()
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				logger.Info("unread count changed", "unread", ev.UnreadCount)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case upd, ok := <-rt.Updates():
				if !ok {
					return nil
				}
				logger.Info("goal update", "kind", upd.Kind)
			}
		}
	})

	g.Wait()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := rec.Stop(shutdownCtx); err != nil {
		logger.Warn("reconciler shutdown", "error", err)
	}
	if err := rt.Stop(shutdownCtx); err != nil {
		logger.Warn("router shutdown", "error", err)
	}
	manager.Close()

	stats := manager.Stats()
	logger.Info("livesyncd stopped",
		"frames_in", stats.FramesIn,
		"frames_out", stats.FramesOut,
		"dropped", stats.Dropped,
	)
}
