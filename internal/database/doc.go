// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package database provides the DuckDB-backed store for ChurnGuard.
//
// Three tables hold the engine's state:
//   - accounts: the periodically refreshed account roster
//   - daily_metrics: per-(account, date) usage facts from the extraction job
//   - monthly_metrics: per-(account, month) rollups plus risk assessments
//
// All months are normalized to the first day of the calendar month before
// they touch the database, so (account_id, month) is a stable primary key.
//
// The monthly_metrics write path enforces the engine's lifecycle rules:
// aggregate upserts never touch risk columns, trending columns are refreshed
// wholesale for the open month, and historical columns are write-once per
// closed month.
package database
