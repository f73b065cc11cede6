// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestHealthEndpoints(t *testing.T) {
	t.Run("healthy when store answers", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		status, env := doGet(t, srv, "/api/v1/health")
		checkStatus(t, status, http.StatusOK)

		var health healthStatus
		checkNoError(t, json.Unmarshal(env.Data, &health))
		if health.Status != "healthy" {
			t.Fatalf("status = %q, want healthy", health.Status)
		}
		if !health.DatabaseConnected {
			t.Fatal("expected database_connected")
		}
		if health.Version != Version {
			t.Fatalf("version = %q, want %q", health.Version, Version)
		}
	})

	t.Run("degraded when store ping fails", func(t *testing.T) {
		store := newFakeStore()
		store.pingErr = errors.New("connection refused")
		srv := newTestServer(t, store)

		status, env := doGet(t, srv, "/api/v1/health")
		checkStatus(t, status, http.StatusOK)

		var health healthStatus
		checkNoError(t, json.Unmarshal(env.Data, &health))
		if health.Status != "degraded" {
			t.Fatalf("status = %q, want degraded", health.Status)
		}
	})

	t.Run("liveness always succeeds", func(t *testing.T) {
		store := newFakeStore()
		store.pingErr = errors.New("connection refused")
		srv := newTestServer(t, store)

		status, _ := doGet(t, srv, "/api/v1/health/live")
		checkStatus(t, status, http.StatusOK)
	})

	t.Run("readiness fails when store is down", func(t *testing.T) {
		store := newFakeStore()
		store.pingErr = errors.New("connection refused")
		srv := newTestServer(t, store)

		status, _ := doGet(t, srv, "/api/v1/health/ready")
		checkStatus(t, status, http.StatusServiceUnavailable)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, err := http.Get(srv.URL + "/metrics")
	checkNoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	checkStatus(t, resp.StatusCode, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	checkNoError(t, err)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatal("expected Prometheus exposition output")
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	t.Run("generated when absent", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/health/live")
		checkNoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected generated X-Request-ID header")
		}
	})

	t.Run("upstream value preserved", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/health/live", nil)
		checkNoError(t, err)
		req.Header.Set("X-Request-ID", "proxy-assigned-id")

		resp, err := http.DefaultClient.Do(req)
		checkNoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		if got := resp.Header.Get("X-Request-ID"); got != "proxy-assigned-id" {
			t.Fatalf("X-Request-ID = %q, want proxy-assigned-id", got)
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	// Chi rejects the mismatched method before the handler runs.
	resp, err := http.Post(srv.URL+"/api/v1/risk/overview", "application/json", strings.NewReader("{}"))
	checkNoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	checkStatus(t, resp.StatusCode, http.StatusMethodNotAllowed)
}
