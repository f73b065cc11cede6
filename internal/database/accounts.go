// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// accounts.go - Account Roster Operations
//
// The roster is refreshed wholesale by the extraction collaborator through
// UpsertAccounts. The risk engine only ever reads it.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

// UpsertAccounts inserts or refreshes a batch of roster rows in a single
// transaction. An existing row is overwritten field-for-field; the roster
// upstream is the source of truth.
func (db *DB) UpsertAccounts(ctx context.Context, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin roster transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	query := `
		INSERT INTO accounts (
			id, name, status, launched_at, archived_at,
			earliest_component_archived_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			launched_at = excluded.launched_at,
			archived_at = excluded.archived_at,
			earliest_component_archived_at = excluded.earliest_component_archived_at,
			updated_at = now()
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare roster upsert: %w", err)
	}
	defer closeWithLog(stmt, "roster upsert statement")

	for i := range accounts {
		a := &accounts[i]
		if a.ID == "" {
			return fmt.Errorf("account at index %d has empty id", i)
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID,
			a.Name,
			string(a.Status),
			nullableTime(a.LaunchedAt),
			nullableTime(a.ArchivedAt),
			nullableTime(a.EarliestComponentArchivedAt),
		); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster transaction: %w", err)
	}

	return nil
}

// GetAccount retrieves a single roster row by ID.
// Returns ErrNotFound when the account does not exist.
func (db *DB) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, status, launched_at, archived_at,
			earliest_component_archived_at
		FROM accounts
		WHERE id = ?
	`

	account, err := scanAccount(db.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}

	return account, nil
}

// ListAccounts returns the full roster ordered by ID. Eligibility for a
// particular month is decided by the caller; the store does not filter.
func (db *DB) ListAccounts(ctx context.Context) ([]models.Account, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, status, launched_at, archived_at,
			earliest_component_archived_at
		FROM accounts
		ORDER BY id
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer closeWithLog(rows, "account rows")

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account  models.Account
		status   string
		launched sql.NullTime
		archived sql.NullTime
		earliest sql.NullTime
	)

	if err := row.Scan(
		&account.ID,
		&account.Name,
		&status,
		&launched,
		&archived,
		&earliest,
	); err != nil {
		return nil, err
	}

	account.Status = models.AccountStatus(status)
	account.LaunchedAt = timePtr(launched)
	account.ArchivedAt = timePtr(archived)
	account.EarliestComponentArchivedAt = timePtr(earliest)

	return &account, nil
}

// nullableTime converts an optional timestamp into a driver-friendly value.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// timePtr converts a scanned NullTime into the model's pointer form,
// normalizing to UTC so date arithmetic is location-independent.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
