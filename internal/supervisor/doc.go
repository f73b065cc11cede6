// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package supervisor provides Suture-based process supervision for the
// ChurnGuard services. The tree has two layers: the engine layer runs the
// risk scheduler and the CRM syncer, and the api layer runs the HTTP
// server. A crash in the engine layer is restarted with backoff without
// taking down the HTTP surface, so dashboards keep reading the last
// assessed state while a run recovers.
package supervisor
