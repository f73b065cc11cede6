// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import (
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/config"
)

// ThresholdSet is the immutable bundle of cut-offs the flag evaluator
// compares a monthly snapshot against. Historical runs use the actual
// full-month values; trending runs use a copy with the month-accumulated
// thresholds scaled by elapsed progress (see Projected).
//
// Values are passed in, never mutated, so historical and trending runs share
// no state.
type ThresholdSet struct {
	// Redemptions is the LowMonthlyRedemptions cut-off (month-accumulated,
	// scaled for trending).
	Redemptions float64

	// EngagementSubs is the subscriber-count component of
	// LowEngagementCombo. Subscriber counts are snapshots, not accumulated
	// totals, so this is never scaled.
	EngagementSubs float64

	// EngagementRedemptions is the redemptions component of
	// LowEngagementCombo (month-accumulated, scaled for trending).
	EngagementRedemptions float64

	// ActivitySubs is the LowActivity cut-off. Never scaled.
	ActivitySubs float64

	// SpendDrop is the minimum fractional period-over-period spend decline
	// for SpendDrop to fire.
	SpendDrop float64

	// RedemptionsDrop is the minimum fractional decline for RedemptionsDrop.
	RedemptionsDrop float64
}

// DefaultThresholds returns the production cut-offs used when the config
// does not override them.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		Redemptions:           10,
		EngagementSubs:        300,
		EngagementRedemptions: 35,
		ActivitySubs:          300,
		SpendDrop:             0.40,
		RedemptionsDrop:       0.50,
	}
}

// ThresholdsFromConfig builds a ThresholdSet from the loaded risk config.
func ThresholdsFromConfig(cfg config.RiskConfig) ThresholdSet {
	return ThresholdSet{
		Redemptions:           cfg.RedemptionsThreshold,
		EngagementSubs:        cfg.EngagementSubsThreshold,
		EngagementRedemptions: cfg.EngagementRedemptionsThreshold,
		ActivitySubs:          cfg.ActivitySubsThreshold,
		SpendDrop:             cfg.SpendDropThreshold,
		RedemptionsDrop:       cfg.RedemptionsDropThreshold,
	}
}

// Projected returns a copy of the set with the month-accumulated redemption
// thresholds scaled by progress (the elapsed fraction of the month). The
// subscriber-count thresholds are left untouched.
func (t ThresholdSet) Projected(progress float64) ThresholdSet {
	scaled := t
	scaled.Redemptions = t.Redemptions * progress
	scaled.EngagementRedemptions = t.EngagementRedemptions * progress
	return scaled
}
