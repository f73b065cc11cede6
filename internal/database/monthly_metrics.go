// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// monthly_metrics.go - Monthly Rollup and Risk Assessment Operations
//
// Write path rules enforced here:
//   - UpsertMonthlyAggregate touches aggregate columns only, so an existing
//     risk assessment survives a recompute verbatim.
//   - SetTrendingRisk refreshes the trending columns wholesale.
//   - FinalizeHistoricalRisk is write-once per (account, month); a second
//     attempt returns ErrAlreadyFinalized.
//
// Reason lists are stored as JSON arrays in TEXT columns.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// MonthKey identifies one (account, month) rollup row.
type MonthKey struct {
	AccountID string
	Month     time.Time
}

// UpsertMonthlyAggregate inserts or overwrites the aggregate columns of a
// rollup row. Risk assessment columns are never touched, so a recompute of a
// finalized month preserves the historical assessment.
func (db *DB) UpsertMonthlyAggregate(ctx context.Context, rec *models.MonthlyMetricRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO monthly_metrics (
			account_id, month, total_spend, total_texts_delivered,
			total_coupons_redeemed, avg_active_subs_cnt, days_with_activity,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, month) DO UPDATE SET
			total_spend = excluded.total_spend,
			total_texts_delivered = excluded.total_texts_delivered,
			total_coupons_redeemed = excluded.total_coupons_redeemed,
			avg_active_subs_cnt = excluded.avg_active_subs_cnt,
			days_with_activity = excluded.days_with_activity,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err := db.conn.ExecContext(ctx, query,
		rec.AccountID,
		dateOnly(rec.Month),
		rec.TotalSpend,
		rec.TotalTextsDelivered,
		rec.TotalCouponsRedeemed,
		rec.AvgActiveSubsCnt,
		rec.DaysWithActivity,
		now,
	); err != nil {
		return fmt.Errorf("failed to upsert monthly aggregate %s/%s: %w",
			rec.AccountID, rec.Month.Format("2006-01"), err)
	}
	rec.UpdatedAt = now

	return nil
}

// SetTrendingRisk overwrites the trending assessment of an existing rollup
// row. Returns ErrNotFound when the row does not exist; the aggregate must be
// written first.
func (db *DB) SetTrendingRisk(ctx context.Context, accountID string, month time.Time, level models.RiskLevel, reasons []string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal trending reasons: %w", err)
	}

	query := `
		UPDATE monthly_metrics
		SET trending_risk_level = ?, trending_risk_reasons = ?, updated_at = ?
		WHERE account_id = ? AND month = ?
	`

	result, err := db.conn.ExecContext(ctx, query,
		string(level), string(reasonsJSON), time.Now().UTC(),
		accountID, dateOnly(month),
	)
	if err != nil {
		return fmt.Errorf("failed to set trending risk %s/%s: %w",
			accountID, month.Format("2006-01"), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read trending update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// FinalizeHistoricalRisk writes the terminal historical assessment of a
// closed month. The write succeeds at most once per row: a month that already
// carries a historical level returns ErrAlreadyFinalized, a missing row
// returns ErrNotFound. The trending columns are cleared in the same statement
// since the terminal assessment supersedes any in-progress estimate.
func (db *DB) FinalizeHistoricalRisk(ctx context.Context, accountID string, month time.Time, level models.RiskLevel, reasons []string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal historical reasons: %w", err)
	}

	query := `
		UPDATE monthly_metrics
		SET historical_risk_level = ?, risk_reasons = ?,
			trending_risk_level = NULL, trending_risk_reasons = NULL,
			updated_at = ?
		WHERE account_id = ? AND month = ? AND historical_risk_level IS NULL
	`

	result, err := db.conn.ExecContext(ctx, query,
		string(level), string(reasonsJSON), time.Now().UTC(),
		accountID, dateOnly(month),
	)
	if err != nil {
		return fmt.Errorf("failed to finalize historical risk %s/%s: %w",
			accountID, month.Format("2006-01"), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read finalize result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a missing row from one that was already finalized.
	var exists int
	checkQuery := `SELECT COUNT(*) FROM monthly_metrics WHERE account_id = ? AND month = ?`
	if err := db.conn.QueryRowContext(ctx, checkQuery, accountID, dateOnly(month)).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check rollup existence: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrAlreadyFinalized
}

// GetMonthlyMetric retrieves one rollup row.
// Returns ErrNotFound when the row does not exist.
func (db *DB) GetMonthlyMetric(ctx context.Context, accountID string, month time.Time) (*models.MonthlyMetricRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := monthlyMetricSelect + ` WHERE account_id = ? AND month = ?`

	rec, err := scanMonthlyMetric(db.conn.QueryRowContext(ctx, query, accountID, dateOnly(month)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get monthly metric %s/%s: %w",
			accountID, month.Format("2006-01"), err)
	}

	return rec, nil
}

// ListMonthlyMetrics returns all rollup rows for one month, ordered by
// account ID.
func (db *DB) ListMonthlyMetrics(ctx context.Context, month time.Time) ([]models.MonthlyMetricRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := monthlyMetricSelect + ` WHERE month = ? ORDER BY account_id`

	return db.queryMonthlyMetrics(ctx, query, dateOnly(month))
}

// ListAccountHistory returns an account's rollup rows ordered newest month
// first, up to limit rows. A non-positive limit returns the full history.
func (db *DB) ListAccountHistory(ctx context.Context, accountID string, limit int) ([]models.MonthlyMetricRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := monthlyMetricSelect + ` WHERE account_id = ? ORDER BY month DESC`
	if limit > 0 {
		return db.queryMonthlyMetrics(ctx, query+` LIMIT ?`, accountID, limit)
	}
	return db.queryMonthlyMetrics(ctx, query, accountID)
}

// ListUnfinalizedMonths returns the (account, month) keys of rollup rows for
// months strictly before the given first-of-month date that still lack a
// historical assessment. The finalizer sweeps this list.
func (db *DB) ListUnfinalizedMonths(ctx context.Context, before time.Time) ([]MonthKey, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT account_id, month
		FROM monthly_metrics
		WHERE month < ? AND historical_risk_level IS NULL
		ORDER BY month, account_id
	`

	rows, err := db.conn.QueryContext(ctx, query, dateOnly(before))
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinalized months: %w", err)
	}
	defer closeWithLog(rows, "unfinalized month rows")

	var keys []MonthKey
	for rows.Next() {
		var key MonthKey
		if err := rows.Scan(&key.AccountID, &key.Month); err != nil {
			return nil, fmt.Errorf("failed to scan month key: %w", err)
		}
		key.Month = key.Month.UTC()
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month keys: %w", err)
	}

	return keys, nil
}

const monthlyMetricSelect = `
	SELECT account_id, month, total_spend, total_texts_delivered,
		total_coupons_redeemed, avg_active_subs_cnt, days_with_activity,
		historical_risk_level, risk_reasons,
		trending_risk_level, trending_risk_reasons, updated_at
	FROM monthly_metrics`

func (db *DB) queryMonthlyMetrics(ctx context.Context, query string, args ...interface{}) ([]models.MonthlyMetricRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly metrics: %w", err)
	}
	defer closeWithLog(rows, "monthly metric rows")

	var records []models.MonthlyMetricRecord
	for rows.Next() {
		rec, err := scanMonthlyMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly metric: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly metrics: %w", err)
	}

	return records, nil
}

func scanMonthlyMetric(row rowScanner) (*models.MonthlyMetricRecord, error) {
	var (
		rec             models.MonthlyMetricRecord
		historicalLevel sql.NullString
		riskReasons     sql.NullString
		trendingLevel   sql.NullString
		trendingReasons sql.NullString
	)

	if err := row.Scan(
		&rec.AccountID,
		&rec.Month,
		&rec.TotalSpend,
		&rec.TotalTextsDelivered,
		&rec.TotalCouponsRedeemed,
		&rec.AvgActiveSubsCnt,
		&rec.DaysWithActivity,
		&historicalLevel,
		&riskReasons,
		&trendingLevel,
		&trendingReasons,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.Month = rec.Month.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	if historicalLevel.Valid {
		level := models.RiskLevel(historicalLevel.String)
		rec.HistoricalRiskLevel = &level
	}
	if trendingLevel.Valid {
		level := models.RiskLevel(trendingLevel.String)
		rec.TrendingRiskLevel = &level
	}

	var err error
	if rec.RiskReasons, err = unmarshalReasons(riskReasons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk_reasons: %w", err)
	}
	if rec.TrendingRiskReasons, err = unmarshalReasons(trendingReasons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trending_risk_reasons: %w", err)
	}

	return &rec, nil
}

func unmarshalReasons(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var reasons []string
	if err := json.Unmarshal([]byte(col.String), &reasons); err != nil {
		return nil, err
	}
	return reasons, nil
}
