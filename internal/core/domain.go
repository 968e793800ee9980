package core

import (
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted when creating a user.
const MinPasswordLength = 6

type (
	Role            string
	Operator        string
	TransactionType string

	// User is an account that can record transactions. The password hash
	// never leaves the storage/credential layers.
	User struct {
		ID        int64
		Username  string
		Role      Role
		CreatedAt time.Time
	}

	// Transaction is one immutable ledger entry. Entries are never
	// updated or deleted; balances are derived by aggregation.
	Transaction struct {
		ID        int64
		AgentID   int64
		Operator  Operator
		Type      TransactionType
		Amount    Amount
		Timestamp time.Time
	}

	// LedgerEntry is a transaction joined with the owning username, as
	// returned by the full-ledger listing.
	LedgerEntry struct {
		Transaction
		Username string
	}
)

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

const (
	Deposit    TransactionType = "Deposit"
	Withdrawal TransactionType = "Withdrawal"
)

// OperatorPlaceholder is the "not selected" sentinel presentation uses for
// the operator picker. It is rejected on write.
const OperatorPlaceholder Operator = "Select an operator"

// Operators is the fixed set of supported mobile-money providers.
var Operators = []Operator{
	"Orange Money",
	"Moov Money",
	"Telecel",
	"Wave",
	"TNT",
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}

func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// ValidateOperator distinguishes the unset sentinel from a value outside
// the enumerated set.
func ValidateOperator(o Operator) error {
	if o == "" || o == OperatorPlaceholder {
		return ErrOperatorNotSelected
	}
	if !o.Valid() {
		return ErrUnknownOperator
	}
	return nil
}

// ValidateUsername rejects empty or whitespace-only usernames. Usernames
// are case-sensitive and stored as given, minus surrounding whitespace.
func ValidateUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", ErrEmptyUsername
	}
	return trimmed, nil
}
