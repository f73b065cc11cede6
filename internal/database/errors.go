// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/logging"
)

// Sentinel errors returned by store operations. Callers match these with
// errors.Is to distinguish data conditions from infrastructure failures.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("database: not found")

	// ErrAlreadyFinalized indicates a historical risk write was attempted
	// against a month that already carries a historical assessment.
	ErrAlreadyFinalized = errors.New("database: historical risk already finalized")
)

// closeWithLog closes a resource and logs any error.
// Use this for cleanup operations where errors should be acknowledged but not
// fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// rollbackQuietly rolls back a transaction, ignoring the error a rollback
// after commit always returns.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
