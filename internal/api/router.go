// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health endpoint.
const Version = "2.3.0"

// Router assembles the HTTP routing tree around a Handler.
type Router struct {
	handler *Handler
}

// NewRouter creates a router for the given handler set.
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Setup builds the Chi routing tree with the full middleware stack.
//
// Rate limits are per client IP and deliberately loose: the read surface is
// a low-traffic internal dashboard and the ingestion surface receives a
// handful of large batches per day. Health probes get their own generous
// bucket so aggressive orchestrator polling never starves real traffic.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.Limit(1000, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(300, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Use(prometheusMetrics)

		r.Get("/risk", router.handler.MonthRisk)
		r.Get("/risk/overview", router.handler.RiskOverview)
		r.Get("/accounts/{id}/risk", router.handler.AccountRisk)
		r.Get("/accounts/{id}/history", router.handler.AccountHistory)

		r.Post("/ingest/accounts", router.handler.IngestAccounts)
		r.Post("/ingest/daily", router.handler.IngestDaily)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
