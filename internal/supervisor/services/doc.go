// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package services adapts ChurnGuard's components to suture's Service
// interface. The HTTP server has its own wrapper because net/http uses a
// blocking ListenAndServe plus Shutdown; everything else (risk scheduler,
// CRM syncer) follows the Start/Stop lifecycle and shares one wrapper.
package services
