// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package main is the entry point for the ChurnGuard server.
//
// ChurnGuard classifies subscription accounts into churn-risk tiers from
// daily usage facts. The server runs three supervised services:
//
//   - the risk scheduler: a daily trending recompute over the open month
//     plus an hourly finalizer sweep that writes the once-only historical
//     assessment for closed months
//   - the CRM syncer: periodic pushes of risk summaries to the configured
//     CRM endpoint, circuit-breaker protected and rate limited
//   - the HTTP API: ingestion endpoints for the extraction job, read
//     endpoints for the dashboard, health probes, and /metrics
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
//
// # Example usage
//
//	export DUCKDB_PATH=/data/churnguard.db
//	export CRM_ENABLED=true
//	export CRM_ENDPOINT_URL=https://crm.example.com/hooks/risk
//	export CRM_API_KEY=...
//	./churnguard
//
// The server handles graceful shutdown on SIGINT and SIGTERM: in-flight
// requests drain within the shutdown timeout, scheduler and syncer runs
// finish their current account, and the database is checkpointed on close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/api"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/config"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/crm"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/logging"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/risk"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/scheduler"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/supervisor"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("db_path", cfg.Database.Path).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("crm_enabled", cfg.CRM.Enabled).
		Msg("Starting ChurnGuard")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	thresholds := risk.ThresholdsFromConfig(cfg.Risk)

	logger := logging.Logger()

	sched := scheduler.New(db, thresholds, &logger, scheduler.Config{
		Enabled:               cfg.Scheduler.Enabled,
		TrendingInterval:      cfg.Scheduler.TrendingInterval,
		FinalizeCheckInterval: cfg.Scheduler.FinalizeCheckInterval,
		RunTimeout:            cfg.Scheduler.RunTimeout,
	})

	crmClient := crm.NewClient(cfg.CRM)
	crmSyncer := crm.NewSyncer(db, crmClient, &logger)
	if !cfg.CRM.Enabled {
		logging.Info().Msg("CRM sync disabled")
	}

	handler := api.NewHandler(db, cfg)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// sutureslog wants slog; the adapter bridges it back onto zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewLifecycleService(sched, "risk-scheduler"))
	tree.AddEngineService(services.NewLifecycleService(crmSyncer, "crm-syncer"))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("ChurnGuard stopped")
}
