// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/config"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	accounts map[string]models.Account
	monthly  map[string]models.MonthlyMetricRecord
	daily    map[string]models.DailyMetricRecord

	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]models.Account),
		monthly:  make(map[string]models.MonthlyMetricRecord),
		daily:    make(map[string]models.DailyMetricRecord),
	}
}

func monthlyKey(accountID string, month time.Time) string {
	return accountID + "|" + month.Format("2006-01")
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) UpsertAccounts(_ context.Context, accounts []models.Account) error {
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return nil
}

func (s *fakeStore) UpsertDailyMetrics(_ context.Context, records []models.DailyMetricRecord) error {
	for _, rec := range records {
		s.daily[rec.AccountID+"|"+rec.Date.Format("2006-01-02")] = rec
	}
	return nil
}

func (s *fakeStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) GetMonthlyMetric(_ context.Context, accountID string, month time.Time) (*models.MonthlyMetricRecord, error) {
	rec, ok := s.monthly[monthlyKey(accountID, month)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &rec, nil
}

func (s *fakeStore) ListMonthlyMetrics(_ context.Context, month time.Time) ([]models.MonthlyMetricRecord, error) {
	var out []models.MonthlyMetricRecord
	for _, rec := range s.monthly {
		if rec.Month.Equal(month) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAccountHistory(_ context.Context, accountID string, limit int) ([]models.MonthlyMetricRecord, error) {
	var out []models.MonthlyMetricRecord
	for _, rec := range s.monthly {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Month.After(out[i].Month) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// newTestServer wires a handler around the fake store with a pinned clock.
func newTestServer(t *testing.T, store Store) *httptest.Server {
	t.Helper()

	handler := NewHandler(store, &config.Config{})
	handler.now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}

	srv := httptest.NewServer(NewRouter(handler).Setup())
	t.Cleanup(srv.Close)
	return srv
}

// envelope mirrors models.APIResponse with a raw Data payload so each test
// can decode into its own shape.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func doGet(t *testing.T, srv *httptest.Server, path string) (int, envelope) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	checkNoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	checkNoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func doPost(t *testing.T, srv *httptest.Server, path, body string) (int, envelope) {
	t.Helper()

	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	checkNoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	checkNoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}
}

func checkErrorCode(t *testing.T, env envelope, code string) {
	t.Helper()
	if env.Error == nil {
		t.Fatalf("expected error %q, got none", code)
	}
	if env.Error.Code != code {
		t.Fatalf("error code = %q, want %q", env.Error.Code, code)
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func riskPtr(level models.RiskLevel) *models.RiskLevel {
	return &level
}
