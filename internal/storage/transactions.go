package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"momoledger/internal/core"
)

// Sync states for the report export pipeline. Derived aggregates never
// read these; they exist so the worker can repair missed event messages.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// InsertTransaction appends one immutable ledger entry with a
// server-assigned timestamp. The insert either fully commits (id
// assigned, visible to all subsequent reads) or is fully rejected.
//
// An agent id that references no user surfaces as core.ErrUnknownAgent;
// a non-positive amount as core.ErrInvalidAmount.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, agentID int64, operator core.Operator, txType core.TransactionType, amount core.Amount) (core.Transaction, error) {
	var (
		id int64
		ts string
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (agent_id, operator, type, amount_cents)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, timestamp`,
		agentID, string(operator), string(txType), amount.Cents,
	).Scan(&id, &ts)
	if err != nil {
		classified := classifyConstraint(err)
		switch {
		case errors.Is(classified, core.ErrReferential):
			return core.Transaction{}, fmt.Errorf("agent %d: %w", agentID, core.ErrUnknownAgent)
		case errors.Is(classified, core.ErrValidation):
			return core.Transaction{}, core.ErrInvalidAmount
		}
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", classified)
	}

	timestamp, err := parseTimestamp(ts)
	if err != nil {
		return core.Transaction{}, storageErr(err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"agent_id", agentID,
		"operator", operator,
		"type", txType,
		"amount", amount.String())

	return core.Transaction{
		ID:        id,
		AgentID:   agentID,
		Operator:  operator,
		Type:      txType,
		Amount:    amount,
		Timestamp: timestamp,
	}, nil
}

// TransactionsForAgent returns the agent's entries, most recent first.
func (r *SQLiteRepository) TransactionsForAgent(ctx context.Context, agentID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agent_id, operator, type, amount_cents, timestamp
		 FROM transactions
		 WHERE agent_id = ?
		 ORDER BY timestamp DESC, id DESC`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("transactions for agent: %w", storageErr(err))
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions for agent: %w", storageErr(err))
	}
	return out, nil
}

// AllTransactions returns the full ledger joined with the owning
// username, most recent first.
func (r *SQLiteRepository) AllTransactions(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.agent_id, t.operator, t.type, t.amount_cents, t.timestamp, u.username
		 FROM transactions t
		 JOIN users u ON t.agent_id = u.id
		 ORDER BY t.timestamp DESC, t.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("all transactions: %w", storageErr(err))
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		var (
			e     core.LedgerEntry
			op    string
			tt    string
			cents int64
			ts    string
		)
		if err := rows.Scan(&e.ID, &e.AgentID, &op, &tt, &cents, &ts, &e.Username); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", storageErr(err))
		}
		e.Operator = core.Operator(op)
		e.Type = core.TransactionType(tt)
		e.Amount = core.Amount{Cents: cents}
		if e.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all transactions: %w", storageErr(err))
	}
	return out, nil
}

// TransactionByID loads one entry joined with its username. Used by the
// report worker when handling a recorded-transaction message.
func (r *SQLiteRepository) TransactionByID(ctx context.Context, id int64) (core.LedgerEntry, error) {
	var (
		e     core.LedgerEntry
		op    string
		tt    string
		cents int64
		ts    string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.agent_id, t.operator, t.type, t.amount_cents, t.timestamp, u.username
		 FROM transactions t
		 JOIN users u ON t.agent_id = u.id
		 WHERE t.id = ?`,
		id,
	).Scan(&e.ID, &e.AgentID, &op, &tt, &cents, &ts, &e.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, fmt.Errorf("%w: transaction %d", core.ErrReferential, id)
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("transaction by id: %w", storageErr(err))
	}

	e.Operator = core.Operator(op)
	e.Type = core.TransactionType(tt)
	e.Amount = core.Amount{Cents: cents}
	if e.Timestamp, err = parseTimestamp(ts); err != nil {
		return core.LedgerEntry{}, storageErr(err)
	}
	return e, nil
}

// PendingTransactionIDs returns ids of entries not yet exported, oldest
// first, up to limit. Entries whose last export attempt failed count as
// pending so the periodic pass retries them.
func (r *SQLiteRepository) PendingTransactionIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions
		 WHERE sync_status IN (?, ?)
		 ORDER BY id
		 LIMIT ?`,
		SyncPending, SyncError, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pending transactions: %w", storageErr(err))
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", storageErr(err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending transactions: %w", storageErr(err))
	}
	return ids, nil
}

// MarkSynced records that an entry was exported. Only ever moves the
// sync marker; the entry itself stays immutable.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncDone)
}

// MarkSyncError records a failed export so the periodic pass can retry
// reporting it without touching the ledger row.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", storageErr(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: transaction %d", core.ErrReferential, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx    core.Transaction
		op    string
		tt    string
		cents int64
		ts    string
	)
	if err := row.Scan(&tx.ID, &tx.AgentID, &op, &tt, &cents, &ts); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", storageErr(err))
	}
	tx.Operator = core.Operator(op)
	tx.Type = core.TransactionType(tt)
	tx.Amount = core.Amount{Cents: cents}
	var err error
	if tx.Timestamp, err = parseTimestamp(ts); err != nil {
		return core.Transaction{}, storageErr(err)
	}
	return tx, nil
}
