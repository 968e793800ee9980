package services

import (
	"context"
	"fmt"
	"log/slog"

	"momoledger/internal/core"
	"momoledger/internal/storage"
)

// EventPublisher announces committed ledger entries to the report
// pipeline. The AMQP client satisfies it; a nil publisher disables
// events.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, id int64) error
}

// LedgerService is the single entry point presentation calls. It
// enforces business validation before delegating to storage and fans a
// recorded event out after each committed write.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  EventPublisher
	ceiling core.Amount
}

func NewLedgerService(storage *storage.SQLiteRepository, events EventPublisher, ceiling core.Amount) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
		ceiling: ceiling,
	}
}

// RecordTransaction validates and persists one ledger entry. The amount
// arrives as the raw string the caller typed; parsing failures, the
// zero/negative case and the ceiling are all validation errors. The
// ceiling is a business rule enforced here, not in storage.
func (s *LedgerService) RecordTransaction(ctx context.Context, agentID int64, operator core.Operator, txType core.TransactionType, rawAmount string) (core.Transaction, error) {
	if err := core.ValidateOperator(operator); err != nil {
		return core.Transaction{}, err
	}
	if !txType.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}

	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.Transaction{}, err
	}
	if amount.Cents > s.ceiling.Cents {
		return core.Transaction{}, core.ErrAmountTooLarge
	}

	tx, err := s.storage.InsertTransaction(ctx, agentID, operator, txType, amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	// The write is committed; a failed event publish is a report-pipeline
	// problem, not a ledger problem.
	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction recorded event",
				"id", tx.ID, "error", err)
		}
	}

	return tx, nil
}

// TransactionsForAgent returns the agent's entries, most recent first.
func (s *LedgerService) TransactionsForAgent(ctx context.Context, agentID int64) ([]core.Transaction, error) {
	return s.storage.TransactionsForAgent(ctx, agentID)
}

// AllTransactions returns the full ledger joined with usernames.
func (s *LedgerService) AllTransactions(ctx context.Context) ([]core.LedgerEntry, error) {
	return s.storage.AllTransactions(ctx)
}

// DailySummary aggregates the trailing windowDays by (date, operator,
// type). Negative windows are rejected with a validation error.
func (s *LedgerService) DailySummary(ctx context.Context, windowDays int) ([]core.DailySummary, error) {
	if windowDays < 0 {
		return nil, core.ErrInvalidWindow
	}
	return s.storage.DailySummary(ctx, windowDays)
}

// OperatorSummary aggregates the full ledger by (operator, type).
func (s *LedgerService) OperatorSummary(ctx context.Context) ([]core.OperatorSummary, error) {
	return s.storage.OperatorSummary(ctx)
}

// AgentBalance derives the agent's position from their entries.
func (s *LedgerService) AgentBalance(ctx context.Context, agentID int64) (core.AgentBalance, error) {
	return s.storage.AgentBalance(ctx, agentID)
}
