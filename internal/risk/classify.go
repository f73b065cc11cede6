// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// Classify maps an evaluation to the final (level, reasons) pair.
//
//   - RecentlyArchived fired: high, reasons = ["Recently Archived"], no
//     other flags considered.
//   - Frozen path: high when FrozenAndInactive also fired, otherwise
//     medium; reasons are the frozen tokens in display order.
//   - Otherwise the summed flag weights decide: >= 3 high, >= 1 medium,
//     else low. Reasons are the fired flags in the fixed display priority
//     order, or ["No flags"] when nothing fired.
func Classify(eval Evaluation) (models.RiskLevel, []string) {
	if eval.Fired(models.FlagRecentlyArchived) {
		return models.RiskHigh, []string{string(models.FlagRecentlyArchived)}
	}

	if eval.Fired(models.FlagFrozenAccountStatus) {
		level := models.RiskMedium
		if eval.Fired(models.FlagFrozenAndInactive) {
			level = models.RiskHigh
		}
		return level, orderReasons(eval.Flags)
	}

	var level models.RiskLevel
	switch {
	case eval.WeightedCount >= highThreshold:
		level = models.RiskHigh
	case eval.WeightedCount >= mediumThreshold:
		level = models.RiskMedium
	default:
		level = models.RiskLow
	}

	if len(eval.Flags) == 0 {
		return level, []string{string(models.ReasonNoFlags)}
	}
	return level, orderReasons(eval.Flags)
}

// NoFlagsResult is the low/["No flags"] pair used by the trending day-1
// guard, where no projection is possible yet.
func NoFlagsResult() (models.RiskLevel, []string) {
	return models.RiskLow, []string{string(models.ReasonNoFlags)}
}

// orderReasons sorts fired flags into the fixed display priority order.
// Downstream consumers filter on exact reason strings and rely on stable
// ordering, so the priority list is part of the engine contract.
func orderReasons(fired []models.FlagName) []string {
	reasons := make([]string, 0, len(fired))
	for _, candidate := range models.ReasonPriority {
		for _, f := range fired {
			if f == candidate {
				reasons = append(reasons, string(f))
				break
			}
		}
	}
	return reasons
}
