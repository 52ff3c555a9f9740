// wsprobe connects to the live sync WebSocket and streams parsed frames to
// the console. Useful for eyeballing what the server pushes for an identity.
//
// Usage: go run ./cmd/wsprobe --config configs/livesync.local.yaml \
//	--identity <uuid> [--goal <uuid>] [--verbose]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/config"
	"github.com/questloop/livesync/internal/connection"
	"github.com/questloop/livesync/internal/ledger"
	"github.com/questloop/livesync/internal/model"
	"github.com/questloop/livesync/internal/router"
)

// printSink dumps pushed notifications to stdout instead of storing them.
type printSink struct {
	verbose bool
}

func (p *printSink) IngestPushed(n model.Notification) {
	fmt.Printf("[%s] notification %s kind=%s title=%q\n",
		time.Now().Format("15:04:05.000"), n.ID, n.Kind, n.Title)
	if p.verbose && len(n.Payload) > 0 {
		var pretty json.RawMessage = n.Payload
		out, _ := json.MarshalIndent(pretty, "  ", "  ")
		fmt.Printf("  %s\n", out)
	}
}

func main() {
	configPath := flag.String("config", "configs/livesync.example.yaml", "path to config file")
	identityStr := flag.String("identity", "", "identity UUID for the connection")
	goalStr := flag.String("goal", "", "goal UUID to subscribe (optional)")
	verbose := flag.Bool("verbose", false, "print full payload JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	identity, err := uuid.Parse(*identityStr)
	if err != nil {
		logger.Error("invalid identity", "error", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	connCfg := connection.DefaultConfig()
	connCfg.WSURL = cfg.Server.WSURL
	connCfg.Token = cfg.Server.Token
	manager := connection.NewManager(connCfg, logger)
	defer manager.Close()

	led := ledger.New(manager, logger)
	manager.OnConnected(led.Replay)

	rt := router.NewRouter(router.Config{}, manager.Messages(), &printSink{verbose: *verbose}, logger)
	rt.OnPong(func() {
		manager.Pong()
		fmt.Printf("[%s] pong\n", time.Now().Format("15:04:05.000"))
	})

	if err := rt.Start(ctx); err != nil {
		logger.Error("failed to start router", "error", err)
		os.Exit(1)
	}

	if err := manager.Connect(ctx, identity); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	if *goalStr != "" {
		goalID, err := uuid.Parse(*goalStr)
		if err != nil {
			logger.Error("invalid goal", "error", err)
			os.Exit(1)
		}
		led.Subscribe(goalID)
	}

	go func() {
		for upd := range rt.Updates() {
			fmt.Printf("[%s] update kind=%s\n",
				upd.ReceivedAt.Format("15:04:05.000"), upd.Kind)
			if *verbose && len(upd.Payload) > 0 {
				fmt.Printf("  %s\n", upd.Payload)
			}
		}
	}()

	// Periodic stats line so stalls are visible
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := manager.Stats()
				logger.Info("stream stats",
					"state", stats.State,
					"frames_in", stats.FramesIn,
					"dropped", stats.Dropped,
					"retries", stats.RetryCount,
				)
			}
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	rt.Stop(shutdownCtx)
	manager.Close()
}
