// Package sheets defines the outbound report-writing ports.
package sheets

import (
	"context"

	"momoledger/internal/core"
)

// ReportWriter receives ledger data for downstream reporting. The ledger
// itself never reads anything back: aggregates always come from storage.
type ReportWriter interface {
	// AppendLedgerEntry adds one recorded transaction to the report.
	AppendLedgerEntry(ctx context.Context, e core.LedgerEntry) error

	// ReplaceDailySummary rewrites the daily-summary snapshot with the
	// given rows.
	ReplaceDailySummary(ctx context.Context, rows []core.DailySummary) error
}
