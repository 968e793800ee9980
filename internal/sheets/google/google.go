// Package google writes ledger reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"momoledger/internal/core"
	ports "momoledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	summarySheet  string
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets report writer. Auth comes from
// GOOGLE_CREDENTIALS_JSON when set, otherwise application default
// credentials.
func New(ctx context.Context, spreadsheetID, ledgerSheet, summarySheet string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var opts []goption.ClientOption
	if creds := os.Getenv("GOOGLE_CREDENTIALS_JSON"); creds != "" {
		opts = append(opts, goption.WithCredentialsJSON([]byte(creds)))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   ledgerSheet,
		summarySheet:  summarySheet,
	}, nil
}

// AppendLedgerEntry appends one transaction row to the ledger sheet.
func (c *Client) AppendLedgerEntry(ctx context.Context, e core.LedgerEntry) error {
	vr := &gsheet.ValueRange{
		Values: [][]interface{}{{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			e.Username,
			string(e.Operator),
			string(e.Type),
			e.Amount.String(),
		}},
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.ledgerSheet+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry exported to spreadsheet",
		"id", e.ID,
		"sheet", c.ledgerSheet)
	return nil
}

// ReplaceDailySummary clears the summary sheet and rewrites it with a
// header plus one row per (date, operator, type) group.
func (c *Client) ReplaceDailySummary(ctx context.Context, rows []core.DailySummary) error {
	rangeRef := c.summarySheet + "!A:E"

	if _, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, rangeRef, &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clear summary sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, []interface{}{"Date", "Operator", "Type", "Total", "Count"})
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Date,
			string(r.Operator),
			string(r.Type),
			r.Total.String(),
			r.Count,
		})
	}

	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, c.summarySheet+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}

	slog.InfoContext(ctx, "Daily summary snapshot exported",
		"rows", len(rows),
		"sheet", c.summarySheet)
	return nil
}
