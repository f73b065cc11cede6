// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package metrics provides Prometheus instrumentation for:
//   - scheduled run duration and outcomes (trending, finalizer)
//   - risk classification counts by level and path
//   - API endpoint latency and throughput
//   - DuckDB query performance
//   - CRM push batches and circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduled Run Metrics
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churnguard_run_duration_seconds",
			Help:    "Duration of scheduled risk runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Full-roster runs can take minutes
		},
		[]string{"run"}, // "trending", "finalizer"
	)

	RunErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnguard_run_errors_total",
			Help: "Total number of per-account errors during scheduled runs",
		},
		[]string{"run"},
	)

	RunAccountsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnguard_run_accounts_processed_total",
			Help: "Total number of accounts processed by scheduled runs",
		},
		[]string{"run"},
	)

	RunLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "churnguard_run_last_success_timestamp",
			Help: "Unix timestamp of the last successful run",
		},
		[]string{"run"},
	)

	// Classification Metrics
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnguard_classifications_total",
			Help: "Total number of risk classifications produced",
		},
		[]string{"path", "level"}, // path: "historical", "trending"; level: "low", "medium", "high"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Ingestion Metrics
	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnguard_ingest_records_total",
			Help: "Total number of records accepted through the ingestion API",
		},
		[]string{"kind"}, // "accounts", "daily_metrics"
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "churnguard_ingest_batch_size",
			Help:    "Number of records in ingestion batches",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	// CRM Push Metrics
	CRMBatchesPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churnguard_crm_batches_pushed_total",
			Help: "Total number of assessment batches pushed to the CRM",
		},
	)

	CRMRecordsPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churnguard_crm_records_pushed_total",
			Help: "Total number of assessment records pushed to the CRM",
		},
	)

	CRMPushErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churnguard_crm_push_errors_total",
			Help: "Total number of CRM push failures",
		},
		[]string{"error_type"}, // "http", "status", "breaker_open", "encode"
	)

	CRMPushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "churnguard_crm_push_duration_seconds",
			Help:    "Duration of CRM push requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRun records the outcome of one scheduled run.
func RecordRun(run string, duration time.Duration, accounts int, errs int) {
	RunDuration.WithLabelValues(run).Observe(duration.Seconds())
	RunAccountsProcessed.WithLabelValues(run).Add(float64(accounts))
	if errs > 0 {
		RunErrors.WithLabelValues(run).Add(float64(errs))
	} else {
		RunLastSuccess.WithLabelValues(run).SetToCurrentTime()
	}
}

// RecordClassification records one produced risk classification.
func RecordClassification(path, level string) {
	ClassificationsTotal.WithLabelValues(path, level).Inc()
}

// RecordDBQuery records the duration of one database operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordIngestBatch records one accepted ingestion batch.
func RecordIngestBatch(kind string, size int) {
	IngestRecordsTotal.WithLabelValues(kind).Add(float64(size))
	IngestBatchSize.Observe(float64(size))
}

// RecordCRMPush records one CRM push attempt.
func RecordCRMPush(records int, duration time.Duration, errorType string) {
	CRMPushDuration.Observe(duration.Seconds())
	if errorType != "" {
		CRMPushErrors.WithLabelValues(errorType).Inc()
		return
	}
	CRMBatchesPushed.Inc()
	CRMRecordsPushed.Add(float64(records))
}
