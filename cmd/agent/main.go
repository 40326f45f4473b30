package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/habitek/inspectd/api"
	migrations "github.com/habitek/inspectd/db"
	"github.com/habitek/inspectd/internal/config"
	"github.com/habitek/inspectd/internal/db"
	"github.com/habitek/inspectd/internal/gateway"
	"github.com/habitek/inspectd/internal/netmon"
	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/internal/store/sqlite"
	"github.com/habitek/inspectd/internal/syncer"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting inspectd agent",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	ctx := context.Background()

	// The local database is the source of truth for the UI. If it cannot
	// be opened or migrated there is nothing useful the agent can do.
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, migrations.Migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := sqlite.New(conn, logger)
	store.SetDefaultMaxAttempts(cfg.Sync.MaxAttempts)

	gw, err := gateway.NewClient(cfg.Backend, nil, logger)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	monitor := netmon.New(gw, cfg.Sync.ProbeInterval, logger)
	repo := offline.NewRepo(store, gw, monitor, logger)
	s := syncer.New(store, gw, monitor, logger)

	// Drain the queue whenever connectivity comes back.
	monitor.OnOnline(func() {
		if err := s.Drain(context.Background()); err != nil && !errors.Is(err, syncer.ErrOffline) {
			logger.Error("drain after reconnect failed", slog.Any("err", err))
		}
	})
	monitor.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, repo, store, s)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("agent listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down agent")

	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := conn.Close(); err != nil {
		logger.Error("error closing DB", slog.Any("err", err))
	}

	logger.Info("agent exited")
}
