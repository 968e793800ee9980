package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"momoledger/internal/core"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type createUserRequest struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role" validate:"required"`
}

type recordTransactionRequest struct {
	Operator string `json:"operator" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
}

// decodeAndValidate parses the JSON body and runs struct validation.
// Any failure maps onto the validation side of the error taxonomy.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", core.ErrValidation)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	user, err := s.creds.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		writeDomainError(w, r, core.ErrPasswordMismatch)
		return
	}

	user, err := s.creds.AddUser(r.Context(), req.Username, req.Password, core.Role(req.Role))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.creds.ListAgents(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, toUserResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRecordTransaction writes a ledger entry attributed to the
// authenticated user.
func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req recordTransactionRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	tx, err := s.ledger.RecordTransaction(r.Context(), claims.UserID,
		core.Operator(req.Operator), core.TransactionType(req.Type), req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx, claims.Username))
}

func (s *Server) handleMyTransactions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	txs, err := s.ledger.TransactionsForAgent(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAllTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.AllTransactions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toTransactionResponse(e.Transaction, e.Username))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	windowDays := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeDomainError(w, r, core.ErrInvalidWindow)
			return
		}
		windowDays = parsed
	}

	rows, err := s.ledger.DailySummary(r.Context(), windowDays)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]dailySummaryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dailySummaryResponse{
			Date:     row.Date,
			Operator: string(row.Operator),
			Type:     string(row.Type),
			Total:    row.Total.String(),
			Count:    row.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOperatorSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.OperatorSummary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]operatorSummaryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, operatorSummaryResponse{
			Operator: string(row.Operator),
			Type:     string(row.Type),
			Total:    row.Total.String(),
			Count:    row.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBalance returns the authenticated user's balance. Admins may ask
// for a specific agent with ?agent_id=.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	agentID := claims.UserID
	if raw := r.URL.Query().Get("agent_id"); raw != "" {
		if claims.Role != core.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required to query other agents"})
			return
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeDomainError(w, r, fmt.Errorf("%w: agent_id must be an integer", core.ErrValidation))
			return
		}
		agentID = parsed
	}

	bal, err := s.ledger.AgentBalance(r.Context(), agentID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(bal))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	status := "ready"
	httpStatus := http.StatusOK

	if err := s.storage.Ping(); err != nil {
		checks["database"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
