// Command main is the entry point for the Memoria API server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memoria/internal/badge"
	"memoria/internal/bootstrap"
	"memoria/internal/config"
	"memoria/internal/middleware"
	"memoria/internal/observability"
	"memoria/internal/server"
	"memoria/internal/storage"
)

// @title Memoria API
// @version 1.0
// @description Memory groups with posts, comments, tags and badges

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetGlobalLogger(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "memoria-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
		Insecure:       !cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedBadges: true,
		SeedDemo:   cfg.SeedDemoData,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb, store)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	loc, _ := cfg.Location()
	sweeper, err := badge.NewSweeper(srv.Badges(), badge.SweepConfig{
		Schedule:  cfg.BadgeSweepSchedule,
		BatchSize: cfg.BadgeSweepBatchSize,
		Location:  loc,
		Logger:    middleware.Logger,
	})
	if err != nil {
		log.Fatalf("Failed to create badge sweeper: %v", err)
	}
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start badge sweeper: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sweeper.Stop(ctx); err != nil {
			middleware.Logger.Error("badge sweeper stop error", slog.String("error", err.Error()))
		}
		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
