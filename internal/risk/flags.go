// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// Flag weights. LowEngagementCombo counts double: on its own it lands an
// account at medium, and any one additional weight-1 flag pushes it to high.
const (
	weightStandard        = 1
	weightEngagementCombo = 2

	// highThreshold and mediumThreshold map the summed weights to a level.
	highThreshold   = 3
	mediumThreshold = 1
)

// ComparisonSnapshot is the prior-period baseline for the drop flags. For
// historical runs it holds the true prior month's full totals; for trending
// runs it holds the prior month's cumulative totals through the same
// day-of-month as the evaluation day.
type ComparisonSnapshot struct {
	TotalSpend           float64
	TotalCouponsRedeemed int64
}

// Evaluation is the flag evaluator's output: which flags fired and their
// summed weight. Lifecycle short-circuits (archived, frozen) are reported
// through the Flags list; the classifier gives them precedence over the
// weighted count.
type Evaluation struct {
	Flags         []models.FlagName
	WeightedCount int
}

// Fired reports whether a specific flag is present in the evaluation.
func (e *Evaluation) Fired(name models.FlagName) bool {
	for _, f := range e.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// Evaluate computes the risk flags for one (account, month) snapshot.
//
// Short-circuits, checked in order before any weighted flag:
//   - Account archived inside the snapshot's month: only RecentlyArchived
//     fires. The classifier forces this to high regardless of weight.
//   - Frozen account: FrozenAccountStatus always fires, FrozenAndInactive
//     additionally when the month delivered zero texts.
//
// Otherwise the five weighted flags run against the supplied thresholds.
// previous may be nil (new accounts or data gaps): the drop flags are then
// simply not evaluated, never treated as "no drop" or "maximum drop". A
// previous period with zero spend or redemptions likewise makes the
// corresponding drop comparison inapplicable.
func Evaluate(current *models.MonthlyMetricRecord, account *models.Account, previous *ComparisonSnapshot, monthsSinceLaunch int, th ThresholdSet) Evaluation {
	if ArchivedWithin(account, current.Month) {
		return Evaluation{Flags: []models.FlagName{models.FlagRecentlyArchived}}
	}

	if account.IsFrozen() {
		eval := Evaluation{Flags: []models.FlagName{models.FlagFrozenAccountStatus}}
		if current.TotalTextsDelivered == 0 {
			eval.Flags = append(eval.Flags, models.FlagFrozenAndInactive)
		}
		return eval
	}

	var eval Evaluation

	if float64(current.TotalCouponsRedeemed) < th.Redemptions {
		eval.fire(models.FlagLowMonthlyRedemptions, weightStandard)
	}

	if monthsSinceLaunch > 2 &&
		current.AvgActiveSubsCnt < th.EngagementSubs &&
		float64(current.TotalCouponsRedeemed) < th.EngagementRedemptions {
		eval.fire(models.FlagLowEngagementCombo, weightEngagementCombo)
	}

	if current.AvgActiveSubsCnt < th.ActivitySubs {
		eval.fire(models.FlagLowActivity, weightStandard)
	}

	if monthsSinceLaunch >= 3 && previous != nil {
		if previous.TotalSpend > 0 {
			if dropRatio(previous.TotalSpend, current.TotalSpend) >= th.SpendDrop {
				eval.fire(models.FlagSpendDrop, weightStandard)
			}
		}
		if previous.TotalCouponsRedeemed > 0 {
			if dropRatio(float64(previous.TotalCouponsRedeemed), float64(current.TotalCouponsRedeemed)) >= th.RedemptionsDrop {
				eval.fire(models.FlagRedemptionsDrop, weightStandard)
			}
		}
	}

	return eval
}

func (e *Evaluation) fire(name models.FlagName, weight int) {
	e.Flags = append(e.Flags, name)
	e.WeightedCount += weight
}

// dropRatio returns the fractional decline from previous to current,
// clamped at zero: an increase is never counted as a negative drop.
func dropRatio(previous, current float64) float64 {
	ratio := (previous - current) / previous
	if ratio < 0 {
		return 0
	}
	return ratio
}
