// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package crm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/logging"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

type fakeSyncStore struct {
	accounts []models.Account
	monthly  []models.MonthlyMetricRecord
}

func (f *fakeSyncStore) ListAccounts(_ context.Context) ([]models.Account, error) {
	return f.accounts, nil
}

func (f *fakeSyncStore) ListMonthlyMetrics(_ context.Context, _ time.Time) ([]models.MonthlyMetricRecord, error) {
	return f.monthly, nil
}

func TestSyncOncePushesAssessedAccountsInBatches(t *testing.T) {
	var mu sync.Mutex
	var batches [][]RiskSummary

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload pushPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		mu.Lock()
		batches = append(batches, payload.Summaries)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	month := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	trending := models.RiskHigh
	store := &fakeSyncStore{
		accounts: []models.Account{
			{ID: "acct-1", Name: "Corner Bakery"},
			{ID: "acct-2", Name: "Old Mill Coffee"},
			{ID: "acct-3", Name: "Silent Shop"},
		},
		monthly: []models.MonthlyMetricRecord{
			{AccountID: "acct-1", Month: month, TrendingRiskLevel: &trending, TrendingRiskReasons: []string{"Low Activity"}},
			{AccountID: "acct-2", Month: month, TrendingRiskLevel: &trending, TrendingRiskReasons: []string{"Low Activity"}},
			// acct-3 has an aggregate but no assessment: skipped.
			{AccountID: "acct-3", Month: month},
		},
	}

	cfg := testClientConfig(srv.URL)
	cfg.BatchSize = 1
	logger := logging.NewTestLogger(io.Discard)
	syncer := NewSyncer(store, NewClient(cfg), &logger)
	syncer.now = func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 2 {
		t.Fatalf("batches: expected 2 with batch size 1, got %d", len(batches))
	}
	if batches[0][0].AccountName != "Corner Bakery" {
		t.Errorf("first summary name: got %q", batches[0][0].AccountName)
	}
}

func TestSyncOnceNoAssessmentsNoRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	store := &fakeSyncStore{}
	logger := logging.NewTestLogger(io.Discard)
	syncer := NewSyncer(store, NewClient(testClientConfig(srv.URL)), &logger)

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
}

func TestSyncerLifecycle(t *testing.T) {
	store := &fakeSyncStore{}
	cfg := testClientConfig("http://127.0.0.1:0")
	cfg.Enabled = false
	logger := logging.NewTestLogger(io.Discard)
	syncer := NewSyncer(store, NewClient(cfg), &logger)

	if err := syncer.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := syncer.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if err := syncer.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
