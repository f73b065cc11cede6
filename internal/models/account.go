// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package models defines the core data types shared across the ChurnGuard
// engine: the account roster, daily usage facts, monthly rollups, and the
// risk assessment vocabulary (levels, flags, reason codes).
package models

import "time"

// AccountStatus is the lifecycle state of an account as reported by the
// upstream extraction job.
type AccountStatus string

// Account lifecycle states. The engine only distinguishes frozen and
// archived; launched and active behave identically during evaluation.
const (
	StatusLaunched AccountStatus = "launched"
	StatusActive   AccountStatus = "active"
	StatusFrozen   AccountStatus = "frozen"
	StatusArchived AccountStatus = "archived"
)

// Account is one row of the periodically refreshed account roster.
// The roster is produced by the extraction collaborator and is read-only
// to the risk engine.
type Account struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status AccountStatus `json:"status"`

	// LaunchedAt is nil for accounts that never launched. Such accounts are
	// never eligible for aggregation or classification.
	LaunchedAt *time.Time `json:"launched_at,omitempty"`

	// ArchivedAt is the authoritative archive timestamp. It was tracked
	// inconsistently before the 2024 billing cutover, so
	// EarliestComponentArchivedAt exists as a fallback.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	// EarliestComponentArchivedAt is the earliest archive date among the
	// account's components, used when ArchivedAt is absent.
	EarliestComponentArchivedAt *time.Time `json:"earliest_component_archived_at,omitempty"`
}

// EffectiveArchivedAt coalesces the authoritative archive timestamp with the
// earliest-component fallback. Returns nil when the account is not archived.
func (a *Account) EffectiveArchivedAt() *time.Time {
	if a.ArchivedAt != nil {
		return a.ArchivedAt
	}
	return a.EarliestComponentArchivedAt
}

// IsFrozen reports whether the account is in the frozen lifecycle state.
func (a *Account) IsFrozen() bool {
	return a.Status == StatusFrozen
}
