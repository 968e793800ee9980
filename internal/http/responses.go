package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"momoledger/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type transactionResponse struct {
	ID        int64  `json:"id"`
	AgentID   int64  `json:"agent_id"`
	Username  string `json:"username,omitempty"`
	Operator  string `json:"operator"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
}

type balanceResponse struct {
	AgentID     int64  `json:"agent_id"`
	Deposits    string `json:"deposits"`
	Withdrawals string `json:"withdrawals"`
	Balance     string `json:"balance"`
}

type operatorSummaryResponse struct {
	Operator string `json:"operator"`
	Type     string `json:"type"`
	Total    string `json:"total"`
	Count    int64  `json:"count"`
}

type dailySummaryResponse struct {
	Date     string `json:"date"`
	Operator string `json:"operator"`
	Type     string `json:"type"`
	Total    string `json:"total"`
	Count    int64  `json:"count"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: string(u.Role)}
}

func toTransactionResponse(tx core.Transaction, username string) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		AgentID:   tx.AgentID,
		Username:  username,
		Operator:  string(tx.Operator),
		Type:      string(tx.Type),
		Amount:    tx.Amount.String(),
		Timestamp: tx.Timestamp.Format(time.RFC3339),
	}
}

func toBalanceResponse(b core.AgentBalance) balanceResponse {
	return balanceResponse{
		AgentID:     b.AgentID,
		Deposits:    b.Deposits.String(),
		Withdrawals: b.Withdrawals.String(),
		Balance:     b.Balance.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
// Validation problems are the caller's to fix (400); failed credential
// checks are 401; other missing references 404; conflicts 409;
// everything else is an infrastructure failure (500) whose details stay
// out of the response body.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrReferential):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"request_id", r.Context().Value(requestIDKey),
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
