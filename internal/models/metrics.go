// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package models

import "time"

// DailyMetricRecord is one day of usage and revenue facts for a single
// account, produced by the extraction collaborator. The engine only ever
// reads these rows; it never mutates them.
type DailyMetricRecord struct {
	AccountID           string    `json:"account_id"`
	Date                time.Time `json:"date"`
	TotalSpend          float64   `json:"total_spend"`
	TotalTextsDelivered int64     `json:"total_texts_delivered"`
	TotalCouponsRedeemed int64    `json:"total_coupons_redeemed"`
	ActiveSubsCnt       int64     `json:"active_subs_cnt"`
}

// MonthlyMetricRecord is the per-(account, month) rollup plus its risk
// assessment fields. Month is always normalized to the first day of the
// calendar month.
//
// Lifecycle invariant: for a closed month the historical risk fields are
// written exactly once by the finalizer and never mutated again. For the
// still-open month the whole row is overwritten in place once per day by
// the trending run (full recomputation, never an incremental delta).
type MonthlyMetricRecord struct {
	AccountID            string    `json:"account_id"`
	Month                time.Time `json:"month"`
	TotalSpend           float64   `json:"total_spend"`
	TotalTextsDelivered  int64     `json:"total_texts_delivered"`
	TotalCouponsRedeemed int64     `json:"total_coupons_redeemed"`
	AvgActiveSubsCnt     float64   `json:"avg_active_subs_cnt"`
	DaysWithActivity     int       `json:"days_with_activity"`

	// Historical assessment: set once after the month closes.
	HistoricalRiskLevel *RiskLevel `json:"historical_risk_level,omitempty"`
	RiskReasons         []string   `json:"risk_reasons,omitempty"`

	// Trending assessment: refreshed daily for the open month only.
	TrendingRiskLevel   *RiskLevel `json:"trending_risk_level,omitempty"`
	TrendingRiskReasons []string   `json:"trending_risk_reasons,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveRisk returns the assessment downstream consumers should display:
// trending if present, otherwise historical. The second return value is false
// when the month has not been assessed at all, which consumers must treat as
// "not yet assessed" rather than low risk.
func (m *MonthlyMetricRecord) EffectiveRisk() (RiskLevel, []string, bool) {
	if m.TrendingRiskLevel != nil {
		return *m.TrendingRiskLevel, m.TrendingRiskReasons, true
	}
	if m.HistoricalRiskLevel != nil {
		return *m.HistoricalRiskLevel, m.RiskReasons, true
	}
	return "", nil, false
}
