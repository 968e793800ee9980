package storage

import (
	"context"
	"fmt"

	"momoledger/internal/core"
)

// Aggregation queries. All read-only over the current committed ledger
// state; nothing here is cached or persisted, so results always reflect
// the latest writes.

// DailySummary groups entries from the trailing windowDays onto
// (calendar date, operator, type), most recent date first. windowDays 0
// yields only same-day entries. Groups with no rows are omitted.
func (r *SQLiteRepository) DailySummary(ctx context.Context, windowDays int) ([]core.DailySummary, error) {
	if windowDays < 0 {
		return nil, core.ErrInvalidWindow
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(timestamp) AS day, operator, type, SUM(amount_cents) AS total, COUNT(*) AS n
		 FROM transactions
		 WHERE timestamp >= date('now', ?)
		 GROUP BY day, operator, type
		 ORDER BY day DESC, operator, type`,
		fmt.Sprintf("-%d days", windowDays),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", storageErr(err))
	}
	defer rows.Close()

	var out []core.DailySummary
	for rows.Next() {
		var (
			s     core.DailySummary
			op    string
			tt    string
			cents int64
		)
		if err := rows.Scan(&s.Date, &op, &tt, &cents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", storageErr(err))
		}
		s.Operator = core.Operator(op)
		s.Type = core.TransactionType(tt)
		s.Total = core.Amount{Cents: cents}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily summary: %w", storageErr(err))
	}
	return out, nil
}

// OperatorSummary groups the entire ledger onto (operator, type),
// ordered by operator then type ascending.
func (r *SQLiteRepository) OperatorSummary(ctx context.Context) ([]core.OperatorSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT operator, type, SUM(amount_cents) AS total, COUNT(*) AS n
		 FROM transactions
		 GROUP BY operator, type
		 ORDER BY operator, type`,
	)
	if err != nil {
		return nil, fmt.Errorf("operator summary: %w", storageErr(err))
	}
	defer rows.Close()

	var out []core.OperatorSummary
	for rows.Next() {
		var (
			s     core.OperatorSummary
			op    string
			tt    string
			cents int64
		)
		if err := rows.Scan(&op, &tt, &cents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan operator summary: %w", storageErr(err))
		}
		s.Operator = core.Operator(op)
		s.Type = core.TransactionType(tt)
		s.Total = core.Amount{Cents: cents}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("operator summary: %w", storageErr(err))
	}
	return out, nil
}

// AgentBalance derives one agent's position over all their entries.
// An agent with no transactions yields an all-zero balance.
func (r *SQLiteRepository) AgentBalance(ctx context.Context, agentID int64) (core.AgentBalance, error) {
	var deposits, withdrawals int64
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE agent_id = ?`,
		string(core.Deposit), string(core.Withdrawal), agentID,
	).Scan(&deposits, &withdrawals)
	if err != nil {
		return core.AgentBalance{}, fmt.Errorf("agent balance: %w", storageErr(err))
	}

	dep := core.Amount{Cents: deposits}
	wdr := core.Amount{Cents: withdrawals}
	return core.AgentBalance{
		AgentID:     agentID,
		Deposits:    dep,
		Withdrawals: wdr,
		Balance:     dep.Sub(wdr),
	}, nil
}
