// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package crm pushes risk summaries to the downstream CRM.
//
// The outbound path is defended two ways: a token-bucket rate limiter keeps
// ChurnGuard inside the CRM's request budget, and a circuit breaker stops
// hammering an endpoint that is clearly down. The breaker uses real time for
// its interval and timeout calculations; tests exercise the wrapped client
// against an httptest server instead of mocking the breaker.
package crm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/config"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/logging"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/metrics"
	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// RiskSummary is one account's current assessment as pushed to the CRM.
type RiskSummary struct {
	AccountID   string   `json:"account_id"`
	AccountName string   `json:"account_name"`
	Month       string   `json:"month"` // "2006-01"
	RiskLevel   string   `json:"risk_level"`
	RiskReasons []string `json:"risk_reasons"`
	Source      string   `json:"source"` // "historical" or "trending"
}

// pushPayload is the request body for one batch.
type pushPayload struct {
	Summaries []RiskSummary `json:"summaries"`
	PushedAt  time.Time     `json:"pushed_at"`
}

// Client pushes risk summary batches to the CRM endpoint.
type Client struct {
	cfg     config.CRMConfig
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// NewClient creates a CRM push client from the loaded configuration.
// Circuit breaker configuration:
// - Max 1 trial request in half-open state
// - Opens after 5 consecutive failures
// - Waits 2 minutes before attempting recovery
func NewClient(cfg config.CRMConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cbName := "crm-push"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("CRM circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cb:      cb,
	}
}

// PushSummaries sends one batch of risk summaries. The call blocks on the
// rate limiter first so a rejected request never consumes budget.
func (c *Client) PushSummaries(ctx context.Context, summaries []RiskSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("crm push rate limit wait: %w", err)
	}

	start := time.Now()
	_, err := c.cb.Execute(func() (struct{}, error) {
		return struct{}{}, c.doPush(ctx, summaries)
	})
	if err != nil {
		metrics.RecordCRMPush(len(summaries), time.Since(start), errorType(err))
		return err
	}

	metrics.RecordCRMPush(len(summaries), time.Since(start), "")
	return nil
}

func (c *Client) doPush(ctx context.Context, summaries []RiskSummary) error {
	body, err := json.Marshal(pushPayload{Summaries: summaries, PushedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm returned status %d: %w", resp.StatusCode, errUnexpectedStatus)
	}

	return nil
}

var errUnexpectedStatus = errors.New("unexpected status")

// errorType maps a push failure to its metrics label.
func errorType(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, errUnexpectedStatus):
		return "status"
	default:
		return "http"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// summaryFromRecord builds the push representation of one assessed rollup.
// Returns false when the month has no assessment yet.
func summaryFromRecord(rec *models.MonthlyMetricRecord, accountName string) (RiskSummary, bool) {
	level, reasons, ok := rec.EffectiveRisk()
	if !ok {
		return RiskSummary{}, false
	}

	source := "historical"
	if rec.TrendingRiskLevel != nil {
		source = "trending"
	}

	return RiskSummary{
		AccountID:   rec.AccountID,
		AccountName: accountName,
		Month:       rec.Month.Format("2006-01"),
		RiskLevel:   string(level),
		RiskReasons: reasons,
		Source:      source,
	}, true
}
