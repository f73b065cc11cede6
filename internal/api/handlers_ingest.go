// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/logging"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/metrics"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// This file contains the ingestion endpoints used by the extraction job
// to push the account roster and daily usage facts. Both endpoints are
// batch upserts: re-pushing the same batch is a harmless overwrite, so the
// extraction job can retry freely.

// maxIngestBody caps ingestion request bodies at 8 MiB.
const maxIngestBody = 8 << 20

// accountPayload is one roster entry in an ingestion batch.
type accountPayload struct {
	ID                          string     `json:"id" validate:"required"`
	Name                        string     `json:"name"`
	Status                      string     `json:"status" validate:"required,oneof=launched active frozen archived"`
	LaunchedAt                  *time.Time `json:"launched_at"`
	ArchivedAt                  *time.Time `json:"archived_at"`
	EarliestComponentArchivedAt *time.Time `json:"earliest_component_archived_at"`
}

// ingestAccountsRequest is the body of POST /api/v1/ingest/accounts.
type ingestAccountsRequest struct {
	Accounts []accountPayload `json:"accounts" validate:"required,min=1,max=5000,dive"`
}

// dailyMetricPayload is one day of usage facts in an ingestion batch.
// Date is a plain calendar date; any time-of-day is rejected up front
// rather than silently truncated.
type dailyMetricPayload struct {
	AccountID            string  `json:"account_id" validate:"required"`
	Date                 string  `json:"date" validate:"required,datetime=2006-01-02"`
	TotalSpend           float64 `json:"total_spend" validate:"min=0"`
	TotalTextsDelivered  int64   `json:"total_texts_delivered" validate:"min=0"`
	TotalCouponsRedeemed int64   `json:"total_coupons_redeemed" validate:"min=0"`
	ActiveSubsCnt        int64   `json:"active_subs_cnt" validate:"min=0"`
}

// ingestDailyRequest is the body of POST /api/v1/ingest/daily.
type ingestDailyRequest struct {
	Records []dailyMetricPayload `json:"records" validate:"required,min=1,max=10000,dive"`
}

// ingestResult reports how many records a batch wrote.
type ingestResult struct {
	Accepted int `json:"accepted"`
}

// decodeIngestBody decodes and validates an ingestion request body into dst.
// Returns false if an error response was already written.
func decodeIngestBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxIngestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err)
		return false
	}
	if apiErr := validateRequest(dst); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return false
	}
	return true
}

// IngestAccounts upserts a batch of roster entries.
//
// Method: POST
// Path: /api/v1/ingest/accounts
func (h *Handler) IngestAccounts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireStore(w) {
		return
	}

	var req ingestAccountsRequest
	if !decodeIngestBody(w, r, &req) {
		return
	}

	accounts := make([]models.Account, len(req.Accounts))
	for i, p := range req.Accounts {
		accounts[i] = models.Account{
			ID:                          p.ID,
			Name:                        p.Name,
			Status:                      models.AccountStatus(p.Status),
			LaunchedAt:                  p.LaunchedAt,
			ArchivedAt:                  p.ArchivedAt,
			EarliestComponentArchivedAt: p.EarliestComponentArchivedAt,
		}
	}

	start := time.Now()
	if err := h.store.UpsertAccounts(r.Context(), accounts); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to upsert accounts", err)
		return
	}

	metrics.RecordIngestBatch("accounts", len(accounts))
	logging.Info().
		Str("request_id", RequestIDFromContext(r.Context())).
		Int("accounts", len(accounts)).
		Msg("Roster batch ingested")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   ingestResult{Accepted: len(accounts)},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// IngestDaily upserts a batch of daily usage facts.
//
// Method: POST
// Path: /api/v1/ingest/daily
func (h *Handler) IngestDaily(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireStore(w) {
		return
	}

	var req ingestDailyRequest
	if !decodeIngestBody(w, r, &req) {
		return
	}

	records := make([]models.DailyMetricRecord, len(req.Records))
	for i, p := range req.Records {
		// Format already validated, so the parse cannot fail.
		day, _ := time.Parse("2006-01-02", p.Date)
		records[i] = models.DailyMetricRecord{
			AccountID:            p.AccountID,
			Date:                 day,
			TotalSpend:           p.TotalSpend,
			TotalTextsDelivered:  p.TotalTextsDelivered,
			TotalCouponsRedeemed: p.TotalCouponsRedeemed,
			ActiveSubsCnt:        p.ActiveSubsCnt,
		}
	}

	start := time.Now()
	if err := h.store.UpsertDailyMetrics(r.Context(), records); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to upsert daily metrics", err)
		return
	}

	metrics.RecordIngestBatch("daily_metrics", len(records))
	logging.Info().
		Str("request_id", RequestIDFromContext(r.Context())).
		Int("records", len(records)).
		Msg("Daily metrics batch ingested")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   ingestResult{Accepted: len(records)},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
