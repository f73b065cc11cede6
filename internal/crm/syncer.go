// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// syncer.go - Periodic CRM Push Job
//
// Each sync pushes the open month's effective assessments in batches. The
// push is idempotent on the CRM side (keyed by account and month), so a
// failed batch is simply retried on the next interval.

package crm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/risk"
)

// Store defines the database reads the syncer needs. *database.DB satisfies it.
type Store interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListMonthlyMetrics(ctx context.Context, month time.Time) ([]models.MonthlyMetricRecord, error)
}

// Syncer periodically pushes the current month's risk summaries.
type Syncer struct {
	store  Store
	client *Client
	logger zerolog.Logger

	interval  time.Duration
	batchSize int
	enabled   bool

	now func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncer creates a CRM syncer over the given store and push client.
func NewSyncer(store Store, client *Client, logger *zerolog.Logger) *Syncer {
	interval := client.cfg.SyncInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	batchSize := client.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Syncer{
		store:     store,
		client:    client,
		logger:    logger.With().Str("component", "crm-syncer").Logger(),
		interval:  interval,
		batchSize: batchSize,
		enabled:   client.cfg.Enabled,
		now:       time.Now,
	}
}

// Start begins the sync loop.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("crm syncer already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.enabled {
		s.logger.Info().Msg("CRM sync disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Msg("Starting CRM syncer")

	go s.run(ctx)
	return nil
}

// Stop stops the sync loop and waits for it to complete.
func (s *Syncer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("CRM syncer stopped")
	return nil
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.SyncOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("CRM sync failed")
	}

	for {
		select {
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("CRM sync failed")
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// SyncOnce pushes the open month's assessed accounts in batches.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	month := risk.MonthOf(s.now())

	records, err := s.store.ListMonthlyMetrics(ctx, month)
	if err != nil {
		return fmt.Errorf("crm sync: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("crm sync: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for i := range accounts {
		names[accounts[i].ID] = accounts[i].Name
	}

	var summaries []RiskSummary
	for i := range records {
		summary, ok := summaryFromRecord(&records[i], names[records[i].AccountID])
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 0 {
		return nil
	}

	pushed := 0
	for start := 0; start < len(summaries); start += s.batchSize {
		end := start + s.batchSize
		if end > len(summaries) {
			end = len(summaries)
		}
		if err := s.client.PushSummaries(ctx, summaries[start:end]); err != nil {
			return fmt.Errorf("crm sync: pushed %d of %d summaries: %w", pushed, len(summaries), err)
		}
		pushed += end - start
	}

	s.logger.Debug().
		Time("month", month).
		Int("summaries", pushed).
		Msg("CRM sync complete")
	return nil
}
