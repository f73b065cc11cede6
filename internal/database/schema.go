// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		// Account roster, refreshed wholesale by the extraction job.
		// Archive timestamps are kept separately: archived_at is authoritative,
		// earliest_component_archived_at is the pre-2024-cutover fallback.
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			launched_at TIMESTAMP,
			archived_at TIMESTAMP,
			earliest_component_archived_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Daily usage facts. Read-only to the risk engine; one row per
		// account per calendar day.
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			account_id TEXT NOT NULL,
			date DATE NOT NULL,
			total_spend DOUBLE NOT NULL DEFAULT 0,
			total_texts_delivered BIGINT NOT NULL DEFAULT 0,
			total_coupons_redeemed BIGINT NOT NULL DEFAULT 0,
			active_subs_cnt BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, date)
		)`,

		// Monthly rollups plus risk assessments. month is always the first
		// day of the calendar month. Reason lists are stored as JSON arrays.
		`CREATE TABLE IF NOT EXISTS monthly_metrics (
			account_id TEXT NOT NULL,
			month DATE NOT NULL,
			total_spend DOUBLE NOT NULL DEFAULT 0,
			total_texts_delivered BIGINT NOT NULL DEFAULT 0,
			total_coupons_redeemed BIGINT NOT NULL DEFAULT 0,
			avg_active_subs_cnt DOUBLE NOT NULL DEFAULT 0,
			days_with_activity INTEGER NOT NULL DEFAULT 0,
			historical_risk_level TEXT,
			risk_reasons TEXT,
			trending_risk_level TEXT,
			trending_risk_reasons TEXT,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (account_id, month)
		)`,
	}
}

// createIndexes creates secondary indexes for the common query patterns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Trending and finalizer runs sweep by date/month.
		`CREATE INDEX IF NOT EXISTS idx_daily_metrics_date ON daily_metrics (date)`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_metrics_month ON monthly_metrics (month)`,
		// Roster queries filter on lifecycle status.
		`CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts (status)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
