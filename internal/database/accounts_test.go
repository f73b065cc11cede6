// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

func TestUpsertAndGetAccount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	accounts := []models.Account{
		{
			ID:         "acct-1",
			Name:       "Corner Bakery",
			Status:     models.StatusActive,
			LaunchedAt: datePtr(2025, time.March, 15),
		},
		{
			ID:                          "acct-2",
			Name:                        "Old Mill Coffee",
			Status:                      models.StatusArchived,
			LaunchedAt:                  datePtr(2024, time.January, 2),
			EarliestComponentArchivedAt: datePtr(2025, time.June, 10),
		},
	}

	checkNoError(t, db.UpsertAccounts(ctx, accounts))

	got, err := db.GetAccount(ctx, "acct-1")
	checkNoError(t, err)
	checkStringEqual(t, "name", got.Name, "Corner Bakery")
	checkStringEqual(t, "status", string(got.Status), "active")
	if got.LaunchedAt == nil {
		t.Fatal("launched_at should not be nil")
	}
	checkTimeEqual(t, "launched_at", *got.LaunchedAt, date(2025, time.March, 15))
	if got.ArchivedAt != nil {
		t.Errorf("archived_at should be nil, got %v", got.ArchivedAt)
	}

	got, err = db.GetAccount(ctx, "acct-2")
	checkNoError(t, err)
	if got.EffectiveArchivedAt() == nil {
		t.Fatal("effective archive date should fall back to component date")
	}
	checkTimeEqual(t, "effective_archived_at", *got.EffectiveArchivedAt(), date(2025, time.June, 10))
}

func TestUpsertAccountsOverwritesExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	checkNoError(t, db.UpsertAccounts(ctx, []models.Account{{
		ID:         "acct-1",
		Name:       "Corner Bakery",
		Status:     models.StatusActive,
		LaunchedAt: datePtr(2025, time.March, 15),
	}}))

	// Roster refresh: same account, now frozen.
	checkNoError(t, db.UpsertAccounts(ctx, []models.Account{{
		ID:         "acct-1",
		Name:       "Corner Bakery",
		Status:     models.StatusFrozen,
		LaunchedAt: datePtr(2025, time.March, 15),
	}}))

	got, err := db.GetAccount(ctx, "acct-1")
	checkNoError(t, err)
	checkStringEqual(t, "status", string(got.Status), "frozen")
}

func TestUpsertAccountsRejectsEmptyID(t *testing.T) {
	db := setupTestDB(t)

	err := db.UpsertAccounts(context.Background(), []models.Account{{Name: "nameless"}})
	if err == nil {
		t.Fatal("expected error for empty account id")
	}
}

func TestGetAccountNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetAccount(context.Background(), "ghost")
	checkErrorIs(t, err, ErrNotFound)
}

func TestListAccountsOrdered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	checkNoError(t, db.UpsertAccounts(ctx, []models.Account{
		{ID: "b", Name: "B", Status: models.StatusActive},
		{ID: "a", Name: "A", Status: models.StatusLaunched},
		{ID: "c", Name: "C", Status: models.StatusFrozen},
	}))

	accounts, err := db.ListAccounts(ctx)
	checkNoError(t, err)
	checkIntEqual(t, "count", int64(len(accounts)), 3)
	checkStringEqual(t, "first", accounts[0].ID, "a")
	checkStringEqual(t, "last", accounts[2].ID, "c")
}
