package main

import (
	"ai-nexus/internal/api/handlers"
	"ai-nexus/internal/app"
	"ai-nexus/internal/auth"
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/repository/memory"
	"ai-nexus/internal/repository/postgres"
	"ai-nexus/internal/service/llm"
	"ai-nexus/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

var openDatabase = func(cfg config.DatabaseConfig) (db.Database, error) {
	if cfg.Driver == "memory" {
		logger.Log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}
	return postgres.NewPostgresDB(cfg)
}

func main() {
	log := logger.Component("server")

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig, prometheus.DefaultRegisterer); err != nil {
		stop()
		log.WithError(err).Fatal("Server stopped")
	}
}

// run serves until ctx is done. The store is opened last so every failure
// after it returns through its deferred Close.
func run(ctx context.Context, appConfig *config.AppConfig, registry prometheus.Registerer) error {
	log := logger.Component("server")

	provider, err := llm.NewProvider(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	log.WithField("driver", appConfig.Database.Driver).Info("Initializing database...")
	database, err := openDatabase(appConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	metrics := telemetry.NewMetrics(registry)
	appCfg := app.NewConfig(database, appConfig, provider, metrics)
	tokens := auth.NewTokenService(appConfig.Auth)

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           handlers.NewRouter(appCfg, tokens, promhttp.HandlerFor(gatherer(registry), promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":     appConfig.Server.Port,
			"provider": appConfig.LLM.Provider,
			"models":   len(appConfig.Models.GetAvailableModels()),
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// gatherer exposes registry when it can also be scraped
func gatherer(registry prometheus.Registerer) prometheus.Gatherer {
	if g, ok := registry.(prometheus.Gatherer); ok {
		return g
	}
	return prometheus.DefaultGatherer
}
