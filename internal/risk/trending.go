// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// AssessTrending evaluates the still-open current month as of evalDate.
//
// Differences from the historical path:
//
//   - Thresholds for the month-accumulated redemption comparisons are
//     scaled by the fraction of the month already elapsed (the evaluation
//     day itself is excluded as incomplete).
//   - previous must hold the prior month's cumulative totals through the
//     same day-of-month as evalDate, keeping the comparison apples-to-apples
//     between two equally partial periods. The caller computes this from the
//     prior month's daily facts.
//
// On day 1 no projection is possible (progress is zero) and the result is
// low/["No flags"] — with one exception: the archived-mid-month and frozen
// short-circuits still take precedence, since they describe lifecycle state
// rather than projected metrics. Without that precedence an account frozen
// on the 1st would read as low risk for a day.
func AssessTrending(current *models.MonthlyMetricRecord, account *models.Account, previous *ComparisonSnapshot, evalDate time.Time, base ThresholdSet) (models.RiskLevel, []string) {
	months := 0
	if account.LaunchedAt != nil {
		months = MonthsSinceLaunch(*account.LaunchedAt, current.Month)
	}

	progress := Progress(evalDate)
	if progress <= 0 {
		if ArchivedWithin(account, current.Month) || account.IsFrozen() {
			return Classify(Evaluate(current, account, nil, months, base))
		}
		return NoFlagsResult()
	}

	return Classify(Evaluate(current, account, previous, months, base.Projected(progress)))
}
