// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// Aggregate rolls all daily facts for one account within the target month
// into a single MonthlyMetricRecord. Spend, texts, and redemptions are
// summed; the active-subscriber count is averaged over days with activity;
// DaysWithActivity counts those days.
//
// Aggregation is always a full recomputation from the daily facts, never an
// incremental merge. Late-arriving or corrected daily rows are therefore
// reflected automatically on the next run with no reconciliation logic.
// Rows outside the target month are ignored.
//
// The returned record carries no risk assessment fields; preservation of an
// existing historical assessment is handled by the store's upsert.
func Aggregate(accountID string, month time.Time, days []models.DailyMetricRecord) models.MonthlyMetricRecord {
	rec := models.MonthlyMetricRecord{
		AccountID: accountID,
		Month:     MonthOf(month),
	}

	var subsSum int64
	for i := range days {
		d := &days[i]
		if !SameMonth(d.Date, month) {
			continue
		}

		rec.TotalSpend += d.TotalSpend
		rec.TotalTextsDelivered += d.TotalTextsDelivered
		rec.TotalCouponsRedeemed += d.TotalCouponsRedeemed

		if hasActivity(d) {
			subsSum += d.ActiveSubsCnt
			rec.DaysWithActivity++
		}
	}

	if rec.DaysWithActivity > 0 {
		rec.AvgActiveSubsCnt = float64(subsSum) / float64(rec.DaysWithActivity)
	}

	return rec
}

// hasActivity reports whether a daily row represents an active day. A day
// with zero across all four metrics is treated as a data-pipeline filler row
// and excluded from the subscriber average.
func hasActivity(d *models.DailyMetricRecord) bool {
	return d.TotalSpend != 0 ||
		d.TotalTextsDelivered != 0 ||
		d.TotalCouponsRedeemed != 0 ||
		d.ActiveSubsCnt != 0
}
