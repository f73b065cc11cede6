// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package api provides the HTTP surface of the risk engine using the Chi
// router. It serves two collaborators: the extraction job pushes roster and
// daily-fact batches through the ingestion endpoints, and the dashboard reads
// effective risk assessments through the read endpoints. Health probes and
// the Prometheus /metrics endpoint round out the surface.
//
// All responses use the APIResponse envelope: a status string, a data
// payload, request metadata with query timing, and a structured error when
// the request failed. Ingestion payloads are validated with
// go-playground/validator before any row reaches the store.
package api
