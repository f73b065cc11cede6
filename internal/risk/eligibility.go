// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// EligibleForMonth decides whether an account participates in the given
// month's aggregation and classification.
//
// Rules:
//   - An account with no launch date is never eligible.
//   - The launch date must fall on or before the last day of the target
//     month.
//   - An archived account (authoritative timestamp or earliest-component
//     fallback) stays eligible through the month containing its archive
//     date, but not later. This "include through month of archival" window
//     is what lets the archived-mid-month flag fire at month end.
func EligibleForMonth(account *models.Account, month time.Time) bool {
	if account.LaunchedAt == nil {
		return false
	}

	monthEnd := LastDayOfMonth(month)
	if account.LaunchedAt.After(monthEnd.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
		return false
	}

	if archived := account.EffectiveArchivedAt(); archived != nil {
		if MonthOf(month).After(MonthOf(*archived)) {
			return false
		}
	}

	return true
}

// ArchivedWithin reports whether the account's effective archive date falls
// inside the [first day, last day] window of the given month.
func ArchivedWithin(account *models.Account, month time.Time) bool {
	archived := account.EffectiveArchivedAt()
	if archived == nil {
		return false
	}
	return SameMonth(*archived, month)
}
