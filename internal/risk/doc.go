// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package risk implements the churn-risk classification engine: the pure
// function family that turns per-month metric rollups into a risk level and
// an ordered list of reason codes.
//
// The package has no I/O. Callers (the scheduler runners in
// internal/scheduler) load snapshots from the database, invoke the functions
// here, and persist the results.
//
// # Evaluation paths
//
// Two paths share the same flag evaluator and classifier:
//
//   - Historical: run once for a month after it has fully closed, with
//     actual full-month thresholds and the true prior month's totals as the
//     comparison baseline. The resulting assessment is immutable.
//   - Trending: run daily for the still-open current month, with thresholds
//     scaled by the fraction of the month already elapsed and a same
//     day-of-month prior-month cumulative baseline.
//
// # Flags
//
// Lifecycle short-circuits bypass the weighted flags entirely: an account
// archived inside the target month is always high risk, and a frozen account
// is medium (or high if it also delivered zero texts). Otherwise five
// weighted flags are evaluated against a ThresholdSet; their combined weight
// maps to the final level (>=3 high, >=1 medium, else low).
package risk
