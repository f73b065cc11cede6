// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/database"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// This file contains the read endpoints consumed by the dashboard:
//
//   - AccountRisk: effective assessment for one (account, month)
//   - AccountHistory: recent monthly rollups for one account, newest first
//   - RiskOverview: level counts across a month
//   - MonthRisk: every assessed rollup for a month
//
// All of them resolve the effective assessment the same way the dashboard
// must: trending if present, else historical, else "not yet assessed".

// riskAssessment is the wire form of one (account, month) assessment.
// Level and reasons are omitted entirely when the month has not been
// assessed; consumers must not read absence as low risk.
type riskAssessment struct {
	AccountID   string           `json:"account_id"`
	Month       string           `json:"month"`
	Assessed    bool             `json:"assessed"`
	RiskLevel   models.RiskLevel `json:"risk_level,omitempty"`
	RiskReasons []string         `json:"risk_reasons,omitempty"`
	AssessedVia string           `json:"assessed_via,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// accountRiskData pairs an assessment with roster identity for the
// single-account endpoint.
type accountRiskData struct {
	riskAssessment
	AccountName string `json:"account_name"`
}

// monthRollup is the wire form of one monthly rollup including aggregates,
// used by the history endpoint.
type monthRollup struct {
	riskAssessment
	TotalSpend           float64 `json:"total_spend"`
	TotalTextsDelivered  int64   `json:"total_texts_delivered"`
	TotalCouponsRedeemed int64   `json:"total_coupons_redeemed"`
	AvgActiveSubsCnt     float64 `json:"avg_active_subs_cnt"`
	DaysWithActivity     int     `json:"days_with_activity"`
}

// riskOverview holds per-level counts for one month.
type riskOverview struct {
	Month      string `json:"month"`
	Low        int    `json:"low"`
	Medium     int    `json:"medium"`
	High       int    `json:"high"`
	Unassessed int    `json:"unassessed"`
	Total      int    `json:"total"`
}

// assessmentOf converts a stored rollup into its wire assessment form.
func assessmentOf(rec *models.MonthlyMetricRecord) riskAssessment {
	a := riskAssessment{
		AccountID: rec.AccountID,
		Month:     rec.Month.Format("2006-01"),
	}
	level, reasons, assessed := rec.EffectiveRisk()
	if !assessed {
		return a
	}
	a.Assessed = true
	a.RiskLevel = level
	a.RiskReasons = reasons
	a.AssessedVia = "historical"
	if rec.TrendingRiskLevel != nil {
		a.AssessedVia = "trending"
	}
	updatedAt := rec.UpdatedAt
	a.UpdatedAt = &updatedAt
	return a
}

// AccountRisk returns the effective risk assessment for one account and
// month. The month defaults to the current calendar month.
//
// Method: GET
// Path: /api/v1/accounts/{id}/risk?month=YYYY-MM
func (h *Handler) AccountRisk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	accountID := chi.URLParam(r, "id")
	month, err := monthParam(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()

	account, err := h.store.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Account not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to look up account", err)
		return
	}

	data := accountRiskData{AccountName: account.Name}
	rec, err := h.store.GetMonthlyMetric(r.Context(), accountID, month)
	switch {
	case err == nil:
		data.riskAssessment = assessmentOf(rec)
	case errors.Is(err, database.ErrNotFound):
		// No rollup yet: report the month as unassessed rather than 404ing,
		// so the dashboard can distinguish a missing account from a month
		// the engine has not reached.
		data.riskAssessment = riskAssessment{
			AccountID: accountID,
			Month:     month.Format("2006-01"),
		}
	default:
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve assessment", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// historyRequest bounds the ?limit= parameter of the history endpoint.
type historyRequest struct {
	Limit int `validate:"min=1,max=60"`
}

// AccountHistory returns recent monthly rollups for one account, newest
// month first.
//
// Method: GET
// Path: /api/v1/accounts/{id}/history?limit=12
func (h *Handler) AccountHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	accountID := chi.URLParam(r, "id")
	req := historyRequest{Limit: getIntParam(r, "limit", 12)}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()

	if _, err := h.store.GetAccount(r.Context(), accountID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Account not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to look up account", err)
		return
	}

	records, err := h.store.ListAccountHistory(r.Context(), accountID, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve history", err)
		return
	}

	rollups := make([]monthRollup, len(records))
	for i := range records {
		rollups[i] = rollupOf(&records[i])
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   rollups,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

func rollupOf(rec *models.MonthlyMetricRecord) monthRollup {
	return monthRollup{
		riskAssessment:       assessmentOf(rec),
		TotalSpend:           rec.TotalSpend,
		TotalTextsDelivered:  rec.TotalTextsDelivered,
		TotalCouponsRedeemed: rec.TotalCouponsRedeemed,
		AvgActiveSubsCnt:     rec.AvgActiveSubsCnt,
		DaysWithActivity:     rec.DaysWithActivity,
	}
}

// RiskOverview returns per-level assessment counts for a month. The month
// defaults to the current calendar month.
//
// Method: GET
// Path: /api/v1/risk/overview?month=YYYY-MM
func (h *Handler) RiskOverview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	month, err := monthParam(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()

	records, err := h.store.ListMonthlyMetrics(r.Context(), month)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve rollups", err)
		return
	}

	overview := riskOverview{Month: month.Format("2006-01"), Total: len(records)}
	for i := range records {
		level, _, assessed := records[i].EffectiveRisk()
		if !assessed {
			overview.Unassessed++
			continue
		}
		switch level {
		case models.RiskLow:
			overview.Low++
		case models.RiskMedium:
			overview.Medium++
		case models.RiskHigh:
			overview.High++
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   overview,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// MonthRisk returns every rollup for a month with its effective assessment.
//
// Method: GET
// Path: /api/v1/risk?month=YYYY-MM
func (h *Handler) MonthRisk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	month, err := monthParam(r, h.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()

	records, err := h.store.ListMonthlyMetrics(r.Context(), month)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve rollups", err)
		return
	}

	assessments := make([]riskAssessment, len(records))
	for i := range records {
		assessments[i] = assessmentOf(&records[i])
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   assessments,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
