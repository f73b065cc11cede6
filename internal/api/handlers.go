// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/config"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// Store is the persistence surface the HTTP handlers need. *database.DB
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	Ping(ctx context.Context) error

	UpsertAccounts(ctx context.Context, accounts []models.Account) error
	UpsertDailyMetrics(ctx context.Context, records []models.DailyMetricRecord) error

	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetMonthlyMetric(ctx context.Context, accountID string, month time.Time) (*models.MonthlyMetricRecord, error)
	ListMonthlyMetrics(ctx context.Context, month time.Time) ([]models.MonthlyMetricRecord, error)
	ListAccountHistory(ctx context.Context, accountID string, limit int) ([]models.MonthlyMetricRecord, error)
}

var _ Store = (*database.DB)(nil)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store     Store
	cfg       *config.Config
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the handler set backed by the given store.
func NewHandler(store Store, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		cfg:       cfg,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// requireMethod validates the HTTP method, writing a 405 if it mismatches.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return false
	}
	return true
}

// requireStore checks store availability, writing a 503 if it is absent.
func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Store not available", nil)
		return false
	}
	return true
}
