// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

func TestIngestAccounts(t *testing.T) {
	t.Run("valid batch is upserted", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"accounts": [
			{"id": "acct-1", "name": "Blue Bottle", "status": "active", "launched_at": "2025-01-10T00:00:00Z"},
			{"id": "acct-2", "name": "Stumptown", "status": "frozen"}
		]}`
		status, env := doPost(t, srv, "/api/v1/ingest/accounts", body)
		checkStatus(t, status, http.StatusOK)

		var result ingestResult
		checkNoError(t, json.Unmarshal(env.Data, &result))
		if result.Accepted != 2 {
			t.Fatalf("accepted = %d, want 2", result.Accepted)
		}

		got, ok := store.accounts["acct-1"]
		if !ok {
			t.Fatal("acct-1 not stored")
		}
		if got.Status != models.StatusActive {
			t.Fatalf("status = %q, want active", got.Status)
		}
		if got.LaunchedAt == nil || !got.LaunchedAt.Equal(date(2025, time.January, 10)) {
			t.Fatalf("launched_at = %v", got.LaunchedAt)
		}
		if store.accounts["acct-2"].Status != models.StatusFrozen {
			t.Fatal("acct-2 status not stored")
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"accounts": [{"id": "acct-1", "status": "paused"}]}`
		status, env := doPost(t, srv, "/api/v1/ingest/accounts", body)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
		if len(store.accounts) != 0 {
			t.Fatal("rejected batch must not be stored")
		}
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"accounts": [{"name": "Nameless", "status": "active"}]}`
		status, env := doPost(t, srv, "/api/v1/ingest/accounts", body)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		status, env := doPost(t, srv, "/api/v1/ingest/accounts", `{"accounts": []}`)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		status, env := doPost(t, srv, "/api/v1/ingest/accounts", `{"accounts": [`)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
	})
}

func TestIngestDaily(t *testing.T) {
	t.Run("valid batch is upserted", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"records": [
			{"account_id": "acct-1", "date": "2025-06-14", "total_spend": 42.5,
			 "total_texts_delivered": 120, "total_coupons_redeemed": 3, "active_subs_cnt": 310},
			{"account_id": "acct-1", "date": "2025-06-15"}
		]}`
		status, env := doPost(t, srv, "/api/v1/ingest/daily", body)
		checkStatus(t, status, http.StatusOK)

		var result ingestResult
		checkNoError(t, json.Unmarshal(env.Data, &result))
		if result.Accepted != 2 {
			t.Fatalf("accepted = %d, want 2", result.Accepted)
		}

		rec, ok := store.daily["acct-1|2025-06-14"]
		if !ok {
			t.Fatal("record not stored")
		}
		if rec.TotalSpend != 42.5 {
			t.Fatalf("total_spend = %v, want 42.5", rec.TotalSpend)
		}
		if rec.ActiveSubsCnt != 310 {
			t.Fatalf("active_subs_cnt = %d, want 310", rec.ActiveSubsCnt)
		}
	})

	t.Run("timestamp instead of date is rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"records": [{"account_id": "acct-1", "date": "2025-06-14T08:00:00Z"}]}`
		status, env := doPost(t, srv, "/api/v1/ingest/daily", body)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
	})

	t.Run("negative counters are rejected", func(t *testing.T) {
		store := newFakeStore()
		srv := newTestServer(t, store)

		body := `{"records": [{"account_id": "acct-1", "date": "2025-06-14", "total_coupons_redeemed": -1}]}`
		status, env := doPost(t, srv, "/api/v1/ingest/daily", body)
		checkStatus(t, status, http.StatusBadRequest)
		checkErrorCode(t, env, "VALIDATION_ERROR")
		if len(store.daily) != 0 {
			t.Fatal("rejected batch must not be stored")
		}
	})
}
