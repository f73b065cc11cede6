// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"testing"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

func TestAssessTrendingProportionalThresholds(t *testing.T) {
	// Day 10 of a 30-day month: progress = 9/30 = 0.30, so the
	// redemptions threshold becomes 10 * 0.30 = 3.
	evalDate := date(2025, time.June, 10)
	account := activeAccount()

	t.Run("5 redemptions fires historically but not trending", func(t *testing.T) {
		current := monthlySnapshot(1000, 300, 5, 500)

		histLevel, histReasons := AssessHistorical(current, account, nil, DefaultThresholds())
		checkLevel(t, histLevel, models.RiskMedium)
		checkReasons(t, histReasons, "Low Monthly Redemptions")

		trendLevel, trendReasons := AssessTrending(current, account, nil, evalDate, DefaultThresholds())
		checkLevel(t, trendLevel, models.RiskLow)
		checkReasons(t, trendReasons, "No flags")
	})

	t.Run("2 redemptions fires under scaled threshold", func(t *testing.T) {
		current := monthlySnapshot(1000, 300, 2, 500)

		level, reasons := AssessTrending(current, account, nil, evalDate, DefaultThresholds())
		checkLevel(t, level, models.RiskMedium)
		checkReasons(t, reasons, "Low Monthly Redemptions")
	})

	t.Run("subscriber thresholds are not scaled", func(t *testing.T) {
		current := monthlySnapshot(1000, 300, 50, 250)

		level, reasons := AssessTrending(current, account, nil, evalDate, DefaultThresholds())
		checkLevel(t, level, models.RiskMedium)
		checkReasons(t, reasons, "Low Activity")
	})
}

func TestAssessTrendingSameDayComparison(t *testing.T) {
	evalDate := date(2025, time.June, 20)
	account := activeAccount() // launched 2025-02-01, five months before June

	// Prior month cumulative through day 20 had spend 1000; month to date
	// has 500: a 50% drop, over the 40% threshold.
	current := monthlySnapshot(500, 300, 50, 500)
	previous := &ComparisonSnapshot{TotalSpend: 1000, TotalCouponsRedeemed: 50}

	level, reasons := AssessTrending(current, account, previous, evalDate, DefaultThresholds())
	checkLevel(t, level, models.RiskMedium)
	checkReasons(t, reasons, "Spend Drop")
}

func TestAssessTrendingDayOneGuard(t *testing.T) {
	dayOne := date(2025, time.June, 1)

	t.Run("normal account short-circuits to low", func(t *testing.T) {
		// Metrics that would fire everything if evaluated.
		current := monthlySnapshot(0, 0, 0, 0)

		level, reasons := AssessTrending(current, activeAccount(), nil, dayOne, DefaultThresholds())
		checkLevel(t, level, models.RiskLow)
		checkReasons(t, reasons, "No flags")
	})

	t.Run("frozen account takes precedence over the guard", func(t *testing.T) {
		account := activeAccount()
		account.Status = models.StatusFrozen
		current := monthlySnapshot(0, 0, 0, 0)

		level, reasons := AssessTrending(current, account, nil, dayOne, DefaultThresholds())
		checkLevel(t, level, models.RiskHigh)
		checkReasons(t, reasons, "Frozen Account Status", "Frozen & Inactive")
	})

	t.Run("archived account takes precedence over the guard", func(t *testing.T) {
		account := &models.Account{
			ID:         "acct-1",
			Status:     models.StatusArchived,
			LaunchedAt: datePtr(2024, time.January, 1),
			ArchivedAt: datePtr(2025, time.June, 1),
		}
		current := monthlySnapshot(100, 100, 100, 100)

		level, reasons := AssessTrending(current, account, nil, dayOne, DefaultThresholds())
		checkLevel(t, level, models.RiskHigh)
		checkReasons(t, reasons, "Recently Archived")
	})
}
