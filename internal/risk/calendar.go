// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package risk

import "time"

// MonthOf normalizes a timestamp to the first day of its calendar month
// at midnight UTC. All month keys in the engine use this form.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// LastDayOfMonth returns midnight UTC on the final calendar day of the
// month containing t.
func LastDayOfMonth(t time.Time) time.Time {
	first := MonthOf(t)
	return first.AddDate(0, 1, -1)
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	return LastDayOfMonth(t).Day()
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthsSinceLaunch computes the whole calendar months elapsed between the
// launch date and the first day of the target month, floored at zero. A
// launch on any day after the 1st does not count its own partial month:
// launched 2025-03-15, target June 2025 -> 2.
func MonthsSinceLaunch(launchedAt, targetMonth time.Time) int {
	first := MonthOf(targetMonth)
	months := (first.Year()-launchedAt.Year())*12 + int(first.Month()) - int(launchedAt.Month())
	if launchedAt.Day() > 1 {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Progress returns the fraction of the month that has fully elapsed as of
// evalDate. The evaluation day itself is excluded as incomplete, so day 1
// yields 0 and no projection is possible.
func Progress(evalDate time.Time) float64 {
	return float64(evalDate.Day()-1) / float64(DaysInMonth(evalDate))
}
