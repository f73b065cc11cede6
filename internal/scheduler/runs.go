// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// runs.go - Trending and Finalizer Run Implementations
//
// Both runs share the same shape: list the work, process accounts with a
// bounded worker pool, count failures per account so a single bad account
// never aborts the sweep.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/metrics"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/risk"
)

// RunTrending recomputes the open month for every eligible account as of
// evalDate: full aggregate rollup plus a trending risk assessment against
// progress-scaled thresholds.
func (s *Scheduler) RunTrending(ctx context.Context, evalDate time.Time) error {
	start := s.now()
	month := risk.MonthOf(evalDate)

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("trending run: %w", err)
	}

	var processed, failed atomic.Int64
	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup

	for i := range accounts {
		account := &accounts[i]
		if !risk.EligibleForMonth(account, month) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.assessTrending(ctx, account, month, evalDate); err != nil {
				failed.Add(1)
				s.logger.Error().Err(err).
					Str("account_id", account.ID).
					Msg("Trending assessment failed")
				return
			}
			processed.Add(1)
		}()
	}
	wg.Wait()

	metrics.RecordRun("trending", time.Since(start), int(processed.Load()), int(failed.Load()))
	s.logger.Info().
		Time("month", month).
		Int64("processed", processed.Load()).
		Int64("failed", failed.Load()).
		Dur("duration", time.Since(start)).
		Msg("Trending run complete")

	if failed.Load() > 0 {
		return fmt.Errorf("trending run: %d of %d accounts failed", failed.Load(), processed.Load()+failed.Load())
	}
	return nil
}

// assessTrending processes one account for the open month.
func (s *Scheduler) assessTrending(ctx context.Context, account *models.Account, month, evalDate time.Time) error {
	rec, err := s.recomputeAggregate(ctx, account.ID, month)
	if err != nil {
		return err
	}

	previous, err := s.priorMonthToDate(ctx, account.ID, month, evalDate.Day())
	if err != nil {
		return err
	}

	level, reasons := risk.AssessTrending(rec, account, previous, evalDate, s.thresholds)
	if err := s.store.SetTrendingRisk(ctx, account.ID, month, level, reasons); err != nil {
		return fmt.Errorf("set trending risk: %w", err)
	}

	metrics.RecordClassification("trending", string(level))
	return nil
}

// RunFinalizer writes the terminal historical assessment for every closed
// month that still lacks one. The previous calendar month's rollups are
// recomputed first so eligible accounts without any daily facts still get a
// (zero) record to finalize.
func (s *Scheduler) RunFinalizer(ctx context.Context, now time.Time) error {
	start := s.now()
	currentMonth := risk.MonthOf(now)
	prevMonth := currentMonth.AddDate(0, -1, 0)

	if err := s.ensurePriorMonthRollups(ctx, prevMonth); err != nil {
		return fmt.Errorf("finalizer run: %w", err)
	}

	keys, err := s.store.ListUnfinalizedMonths(ctx, currentMonth)
	if err != nil {
		return fmt.Errorf("finalizer run: %w", err)
	}

	var processed, failed atomic.Int64
	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup

	for _, key := range keys {
		key := key
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.finalizeMonth(ctx, key); err != nil {
				failed.Add(1)
				s.logger.Error().Err(err).
					Str("account_id", key.AccountID).
					Time("month", key.Month).
					Msg("Historical finalization failed")
				return
			}
			processed.Add(1)
		}()
	}
	wg.Wait()

	metrics.RecordRun("finalizer", time.Since(start), int(processed.Load()), int(failed.Load()))
	if processed.Load() > 0 || failed.Load() > 0 {
		s.logger.Info().
			Int64("processed", processed.Load()).
			Int64("failed", failed.Load()).
			Dur("duration", time.Since(start)).
			Msg("Finalizer sweep complete")
	}

	if failed.Load() > 0 {
		return fmt.Errorf("finalizer run: %d of %d months failed", failed.Load(), processed.Load()+failed.Load())
	}
	return nil
}

// ensurePriorMonthRollups guarantees a rollup row exists for every account
// eligible in the just-closed month. Months already finalized are left alone.
func (s *Scheduler) ensurePriorMonthRollups(ctx context.Context, month time.Time) error {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return err
	}

	for i := range accounts {
		account := &accounts[i]
		if !risk.EligibleForMonth(account, month) {
			continue
		}

		existing, err := s.store.GetMonthlyMetric(ctx, account.ID, month)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		if existing != nil && existing.HistoricalRiskLevel != nil {
			continue
		}

		if _, err := s.recomputeAggregate(ctx, account.ID, month); err != nil {
			return err
		}
	}

	return nil
}

// finalizeMonth assesses one closed (account, month) pair against actual
// thresholds and writes the terminal historical assessment.
func (s *Scheduler) finalizeMonth(ctx context.Context, key database.MonthKey) error {
	account, err := s.store.GetAccount(ctx, key.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	rec, err := s.recomputeAggregate(ctx, key.AccountID, key.Month)
	if err != nil {
		return err
	}

	// Previous = the true full total of the month before the one being
	// finalized.
	previous, err := s.priorMonthTotals(ctx, key.AccountID, key.Month)
	if err != nil {
		return err
	}

	level, reasons := risk.AssessHistorical(rec, account, previous, s.thresholds)
	if err := s.store.FinalizeHistoricalRisk(ctx, key.AccountID, key.Month, level, reasons); err != nil {
		// A concurrent sweep got there first; the terminal write stands.
		if errors.Is(err, database.ErrAlreadyFinalized) {
			return nil
		}
		return fmt.Errorf("finalize historical risk: %w", err)
	}

	metrics.RecordClassification("historical", string(level))
	return nil
}

// recomputeAggregate rebuilds the month's rollup from daily facts and writes
// the aggregate columns.
func (s *Scheduler) recomputeAggregate(ctx context.Context, accountID string, month time.Time) (*models.MonthlyMetricRecord, error) {
	days, err := s.store.ListDailyMetrics(ctx, accountID, month)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}

	rec := risk.Aggregate(accountID, month, days)
	if err := s.store.UpsertMonthlyAggregate(ctx, &rec); err != nil {
		return nil, fmt.Errorf("upsert monthly aggregate: %w", err)
	}

	return &rec, nil
}

// priorMonthToDate returns the prior month's cumulative totals through the
// same day of month, the baseline for trending drop comparisons. The window
// is clamped to the prior month's end when it is shorter than the current one.
func (s *Scheduler) priorMonthToDate(ctx context.Context, accountID string, month time.Time, day int) (*risk.ComparisonSnapshot, error) {
	prevStart := month.AddDate(0, -1, 0)
	cutoff := prevStart.AddDate(0, 0, day)
	if cutoff.After(month) {
		cutoff = month
	}
	return s.comparisonWindow(ctx, accountID, prevStart, cutoff)
}

// priorMonthTotals returns the prior month's full totals, the baseline for
// historical drop comparisons.
func (s *Scheduler) priorMonthTotals(ctx context.Context, accountID string, month time.Time) (*risk.ComparisonSnapshot, error) {
	prevStart := month.AddDate(0, -1, 0)
	return s.comparisonWindow(ctx, accountID, prevStart, month)
}

func (s *Scheduler) comparisonWindow(ctx context.Context, accountID string, start, end time.Time) (*risk.ComparisonSnapshot, error) {
	totals, err := s.store.DailyTotalsBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("prior month totals: %w", err)
	}
	if totals == nil {
		return nil, nil
	}
	return &risk.ComparisonSnapshot{
		TotalSpend:           totals.TotalSpend,
		TotalCouponsRedeemed: totals.TotalCouponsRedeemed,
	}, nil
}
