// Package app wires one host process: logging router, authoritative engine,
// hub, and the HTTP front door.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
	"github.com/niembro64/rts-prototype-sub002/internal/net/ws"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
	"github.com/niembro64/rts-prototype-sub002/internal/telemetry"
	"github.com/niembro64/rts-prototype-sub002/logging"
	loggingsinks "github.com/niembro64/rts-prototype-sub002/logging/sinks"
)

// Config carries the host's injectable collaborators.
type Config struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Addr    string
}

// Run builds the host and serves until the listener fails or ctx cancels.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsole(os.Stdout)},
	}
	if path := os.Getenv("LOG_JSON_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Printf("cannot open LOG_JSON_PATH=%q: %v", path, err)
		} else {
			namedSinks = append(namedSinks, logging.NamedSink{
				Name: "json",
				Sink: loggingsinks.NewJSON(file, logConfig.JSON.FlushInterval),
			})
		}
	}
	router := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := router.Close(closeCtx); err != nil {
			logger.Printf("failed to close logging router: %v", err)
		}
	}()

	hubCfg := servernet.DefaultHubConfig()
	hubCfg.Publisher = router
	hubCfg.Logger = logger
	hubCfg.Metrics = cfg.Metrics
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			hubCfg.Loop.TickRate = value
		} else {
			logger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("SNAPSHOT_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			hubCfg.SnapshotRate = value
		} else {
			logger.Printf("invalid SNAPSHOT_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			hubCfg.MaxPlayers = value
		} else {
			logger.Printf("invalid MAX_PLAYERS=%q: %v", raw, err)
		}
	}

	registry := sim.DefaultRegistry()
	world := sim.NewWorld(sim.DefaultWorldConfig())
	economy := sim.NewEconomy(sim.DefaultEconomyConfig())
	engine := sim.NewEngine(world, economy, registry, nil, sim.EngineDeps{
		Publisher: router,
		Logger:    logger,
		Metrics:   cfg.Metrics,
	})
	hub := servernet.NewHub(engine, hubCfg)

	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(hub, logger, router))

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	if raw := os.Getenv("LISTEN_ADDR"); raw != "" {
		addr = raw
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("host listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
