// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// AssessHistorical evaluates a fully closed month with actual full-month
// thresholds. previous holds the true prior month's full totals, or nil when
// no prior data exists (new accounts, data gaps).
//
// The caller (the finalizer run) writes the result exactly once per
// (account, month); after that write the assessment is immutable, which is
// the basis for the trend reporting's immutable-history guarantee.
func AssessHistorical(current *models.MonthlyMetricRecord, account *models.Account, previous *ComparisonSnapshot, th ThresholdSet) (models.RiskLevel, []string) {
	months := 0
	if account.LaunchedAt != nil {
		months = MonthsSinceLaunch(*account.LaunchedAt, current.Month)
	}
	return Classify(Evaluate(current, account, previous, months, th))
}
