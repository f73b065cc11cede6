// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package scheduler drives the periodic risk runs.
//
// Two cadences share one service:
//   - the trending run recomputes the open month for every eligible account
//     (aggregate rollup plus trending assessment), normally once per day
//   - the finalizer sweep writes the terminal historical assessment for
//     closed months that still lack one, checked more frequently so a
//     restart around month boundary cannot leave months unfinalized
//
// Every run is a full recomputation from the daily facts; a partially
// failed run heals on the next tick. The scheduler integrates with the
// supervisor tree for lifecycle management.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/risk"
)

// Store defines the database operations required by the risk runs.
// *database.DB satisfies it.
type Store interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)

	ListDailyMetrics(ctx context.Context, accountID string, month time.Time) ([]models.DailyMetricRecord, error)
	DailyTotalsBetween(ctx context.Context, accountID string, start, end time.Time) (*database.ComparisonTotals, error)

	UpsertMonthlyAggregate(ctx context.Context, rec *models.MonthlyMetricRecord) error
	GetMonthlyMetric(ctx context.Context, accountID string, month time.Time) (*models.MonthlyMetricRecord, error)
	SetTrendingRisk(ctx context.Context, accountID string, month time.Time, level models.RiskLevel, reasons []string) error
	FinalizeHistoricalRisk(ctx context.Context, accountID string, month time.Time, level models.RiskLevel, reasons []string) error
	ListUnfinalizedMonths(ctx context.Context, before time.Time) ([]database.MonthKey, error)
}

// Config holds scheduler timing configuration.
type Config struct {
	// Enabled controls whether the scheduler loop runs at all.
	Enabled bool

	// TrendingInterval is how often the open month is recomputed.
	TrendingInterval time.Duration

	// FinalizeCheckInterval is how often closed months are swept for
	// missing historical assessments.
	FinalizeCheckInterval time.Duration

	// RunTimeout bounds a single full run over the roster.
	RunTimeout time.Duration

	// MaxConcurrent is the per-run account processing parallelism.
	MaxConcurrent int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		TrendingInterval:      24 * time.Hour,
		FinalizeCheckInterval: time.Hour,
		RunTimeout:            30 * time.Minute,
		MaxConcurrent:         4,
	}
}

// Scheduler runs the trending and finalizer cadences.
type Scheduler struct {
	store      Store
	thresholds risk.ThresholdSet
	logger     zerolog.Logger
	config     Config

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a scheduler over the given store and threshold set.
func New(store Store, thresholds risk.ThresholdSet, logger *zerolog.Logger, config Config) *Scheduler {
	if config.TrendingInterval <= 0 {
		config.TrendingInterval = 24 * time.Hour
	}
	if config.FinalizeCheckInterval <= 0 {
		config.FinalizeCheckInterval = time.Hour
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 30 * time.Minute
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}

	return &Scheduler{
		store:      store,
		thresholds: thresholds,
		logger:     logger.With().Str("component", "risk-scheduler").Logger(),
		config:     config,
		now:        time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Risk scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Dur("trending_interval", s.config.TrendingInterval).
		Dur("finalize_check_interval", s.config.FinalizeCheckInterval).
		Int("max_concurrent", s.config.MaxConcurrent).
		Msg("Starting risk scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping risk scheduler...")
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Risk scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	trendingTicker := time.NewTicker(s.config.TrendingInterval)
	defer trendingTicker.Stop()
	finalizeTicker := time.NewTicker(s.config.FinalizeCheckInterval)
	defer finalizeTicker.Stop()

	// Run both immediately on start so a restart never waits a full
	// interval to catch up.
	s.runWithTimeout(ctx, "finalizer", s.RunFinalizer)
	s.runWithTimeout(ctx, "trending", s.RunTrending)

	for {
		select {
		case <-trendingTicker.C:
			s.runWithTimeout(ctx, "trending", s.RunTrending)
		case <-finalizeTicker.C:
			s.runWithTimeout(ctx, "finalizer", s.RunFinalizer)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runWithTimeout(ctx context.Context, name string, fn func(context.Context, time.Time) error) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	runID := uuid.New().String()
	s.logger.Debug().Str("run_id", runID).Str("run", name).Msg("Scheduled run starting")
	if err := fn(runCtx, s.now()); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Str("run", name).Msg("Scheduled run failed")
	}
}
