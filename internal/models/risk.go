// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package models

// RiskLevel is the churn-risk tier assigned to an (account, month) pair.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether the level is one of the three known tiers.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// FlagName identifies one of the boolean risk indicators. The string values
// double as the stable reason-code tokens shown in the dashboard and pushed
// to the CRM, so they must never change.
type FlagName string

const (
	FlagRecentlyArchived      FlagName = "Recently Archived"
	FlagFrozenAccountStatus   FlagName = "Frozen Account Status"
	FlagFrozenAndInactive     FlagName = "Frozen & Inactive"
	FlagLowMonthlyRedemptions FlagName = "Low Monthly Redemptions"
	FlagLowEngagementCombo    FlagName = "Low Engagement Combo"
	FlagLowActivity           FlagName = "Low Activity"
	FlagSpendDrop             FlagName = "Spend Drop"
	FlagRedemptionsDrop       FlagName = "Redemptions Drop"

	// ReasonNoFlags is emitted when no risk flag fired. It is a reason code,
	// not a flag, and always sorts last in display order.
	ReasonNoFlags FlagName = "No flags"
)

// ReasonPriority is the fixed display ordering for reason codes: archived
// first, frozen next, then the weighted flags, "No flags" always last. The
// dashboard relies on this ordering for stable output, so it is part of the
// engine's contract rather than a presentation detail.
var ReasonPriority = []FlagName{
	FlagRecentlyArchived,
	FlagFrozenAccountStatus,
	FlagFrozenAndInactive,
	FlagLowMonthlyRedemptions,
	FlagLowEngagementCombo,
	FlagLowActivity,
	FlagSpendDrop,
	FlagRedemptionsDrop,
	ReasonNoFlags,
}
