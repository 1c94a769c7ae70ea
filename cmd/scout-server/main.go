// Package main provides the HTTP research server for Scout.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/scout-go/internal/agent"
	"github.com/raphaelgruber/scout-go/internal/config"
	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/evolution"
	"github.com/raphaelgruber/scout-go/internal/llm"
	"github.com/raphaelgruber/scout-go/internal/metrics"
	"github.com/raphaelgruber/scout-go/internal/server"
	"github.com/raphaelgruber/scout-go/internal/strategy"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if closeLog != nil {
			_ = closeLog()
		}
	}()

	slog.Info("starting scout-server", "port", cfg.ServerPort)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("SCOUT_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		cancel()
	}

	collector := metrics.NewCollector()

	newModel := func(ctx context.Context, tier string) (agent.ContentGenerator, error) {
		model, err := llm.NewModel(ctx, cfg, tier)
		if err != nil {
			return nil, err
		}
		return model.Instrument(collector), nil
	}
	registry := agent.NewDefaultRegistry(newModel, dbClient, logger)
	runner := agent.NewRunner(newModel, registry, logger)
	store := strategy.NewStore(dbClient, cfg.CandidateRollout, logger)
	analyzer := evolution.NewAnalyzer(dbClient, store, dbClient, cfg.MinEpisodes, collector, logger)
	controller := episode.NewController(dbClient, dbClient, dbClient, store, runner, analyzer, collector, logger)

	srv := server.New(controller, dbClient, collector, logger, version)
	httpServer := srv.HTTPServer(cfg.ServerPort)

	go func() {
		slog.Info("research API available", "url", "http://localhost:"+cfg.ServerPort+"/api")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight strategy analyses finish before the process exits.
	analyzer.Wait()

	slog.Info("server stopped")
}
