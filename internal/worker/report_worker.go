// Package worker exports recorded transactions and summary snapshots to
// the reporting spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"momoledger/internal/amqp"
	"momoledger/internal/sheets"
	"momoledger/internal/storage"
)

// ReportWorker consumes recorded-transaction messages and keeps the
// report spreadsheet in step with the ledger. The ledger is the source
// of truth; every export re-reads the committed row.
type ReportWorker struct {
	storage    *storage.SQLiteRepository
	writer     sheets.ReportWriter
	batchSize  int
	windowDays int
}

func NewReportWorker(storage *storage.SQLiteRepository, writer sheets.ReportWriter, batchSize, windowDays int) *ReportWorker {
	return &ReportWorker{
		storage:    storage,
		writer:     writer,
		batchSize:  batchSize,
		windowDays: windowDays,
	}
}

// HandleRecorded processes one recorded-transaction message.
func (w *ReportWorker) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded transaction message", "id", msg.ID)
	return w.export(ctx, msg.ID)
}

// ProcessPending exports any entries whose event message was missed.
// Backup mechanism for lost broker messages; runs on a timer.
func (w *ReportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.storage.PendingTransactionIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(ids))

	for _, id := range ids {
		if err := w.export(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction", "id", id, "error", err)
			// Continue with the rest of the batch.
		}
	}
	return nil
}

// RefreshDailySummary recomputes the trailing-window summary from the
// ledger and rewrites the snapshot sheet.
func (w *ReportWorker) RefreshDailySummary(ctx context.Context) error {
	rows, err := w.storage.DailySummary(ctx, w.windowDays)
	if err != nil {
		return fmt.Errorf("compute daily summary: %w", err)
	}
	if err := w.writer.ReplaceDailySummary(ctx, rows); err != nil {
		return fmt.Errorf("write daily summary: %w", err)
	}
	return nil
}

func (w *ReportWorker) export(ctx context.Context, id int64) error {
	entry, err := w.storage.TransactionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	if err := w.writer.AppendLedgerEntry(ctx, entry); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append ledger entry %d: %w", id, err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced %d: %w", id, err)
	}
	return nil
}
