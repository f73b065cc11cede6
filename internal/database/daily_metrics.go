// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// daily_metrics.go - Daily Usage Fact Operations
//
// Daily facts arrive from the extraction collaborator through the ingestion
// API. Re-delivery of a day overwrites the existing row; the upstream feed is
// authoritative and the monthly rollup is recomputed from scratch anyway.

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// ComparisonTotals is a cumulative window over daily facts, used as the
// prior-month baseline for the drop flags.
type ComparisonTotals struct {
	TotalSpend           float64
	TotalCouponsRedeemed int64
}

// UpsertDailyMetrics inserts or overwrites a batch of daily fact rows in a
// single transaction.
func (db *DB) UpsertDailyMetrics(ctx context.Context, records []models.DailyMetricRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin daily metrics transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	query := `
		INSERT INTO daily_metrics (
			account_id, date, total_spend, total_texts_delivered,
			total_coupons_redeemed, active_subs_cnt
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, date) DO UPDATE SET
			total_spend = excluded.total_spend,
			total_texts_delivered = excluded.total_texts_delivered,
			total_coupons_redeemed = excluded.total_coupons_redeemed,
			active_subs_cnt = excluded.active_subs_cnt
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare daily metrics upsert: %w", err)
	}
	defer closeWithLog(stmt, "daily metrics upsert statement")

	for i := range records {
		r := &records[i]
		if r.AccountID == "" {
			return fmt.Errorf("daily metric at index %d has empty account_id", i)
		}
		if _, err := stmt.ExecContext(ctx,
			r.AccountID,
			dateOnly(r.Date),
			r.TotalSpend,
			r.TotalTextsDelivered,
			r.TotalCouponsRedeemed,
			r.ActiveSubsCnt,
		); err != nil {
			return fmt.Errorf("failed to upsert daily metric %s/%s: %w",
				r.AccountID, r.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily metrics transaction: %w", err)
	}

	return nil
}

// ListDailyMetrics returns the account's daily fact rows within the calendar
// month starting at month (which must be a first-of-month date), ordered by
// date.
func (db *DB) ListDailyMetrics(ctx context.Context, accountID string, month time.Time) ([]models.DailyMetricRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := dateOnly(month)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT account_id, date, total_spend, total_texts_delivered,
			total_coupons_redeemed, active_subs_cnt
		FROM daily_metrics
		WHERE account_id = ? AND date >= ? AND date < ?
		ORDER BY date
	`

	rows, err := db.conn.QueryContext(ctx, query, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily metrics: %w", err)
	}
	defer closeWithLog(rows, "daily metric rows")

	var records []models.DailyMetricRecord
	for rows.Next() {
		var r models.DailyMetricRecord
		if err := rows.Scan(
			&r.AccountID,
			&r.Date,
			&r.TotalSpend,
			&r.TotalTextsDelivered,
			&r.TotalCouponsRedeemed,
			&r.ActiveSubsCnt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily metric: %w", err)
		}
		r.Date = r.Date.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily metrics: %w", err)
	}

	return records, nil
}

// DailyTotalsBetween sums the account's daily facts over the half-open date
// window [start, end). Returns nil when the window contains no rows at all,
// which callers must treat as "no baseline" rather than a zero baseline.
func (db *DB) DailyTotalsBetween(ctx context.Context, accountID string, start, end time.Time) (*ComparisonTotals, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*),
			COALESCE(SUM(total_spend), 0),
			COALESCE(SUM(total_coupons_redeemed), 0)
		FROM daily_metrics
		WHERE account_id = ? AND date >= ? AND date < ?
	`

	var (
		count  int64
		totals ComparisonTotals
	)
	err := db.conn.QueryRowContext(ctx, query, accountID, dateOnly(start), dateOnly(end)).
		Scan(&count, &totals.TotalSpend, &totals.TotalCouponsRedeemed)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily totals: %w", err)
	}

	if count == 0 {
		return nil, nil
	}
	return &totals, nil
}

// dateOnly strips the time-of-day component so DATE columns compare cleanly.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
