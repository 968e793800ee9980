package core

// AgentBalance is the derived position of a single agent over the whole
// ledger. Never persisted; recomputed on demand.
type AgentBalance struct {
	AgentID     int64
	Deposits    Amount
	Withdrawals Amount
	Balance     Amount
}

// OperatorSummary is a grouped total over the full ledger, keyed by
// (operator, type). Groups with no rows are omitted.
type OperatorSummary struct {
	Operator Operator
	Type     TransactionType
	Total    Amount
	Count    int64
}

// DailySummary is a grouped total over a trailing window, keyed by
// (calendar date, operator, type). The date is the stored timestamp's
// calendar date in the store's reference timezone, formatted YYYY-MM-DD.
type DailySummary struct {
	Date     string
	Operator Operator
	Type     TransactionType
	Total    Amount
	Count    int64
}
