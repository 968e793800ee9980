package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"momoledger/internal/auth"
	"momoledger/internal/core"
	"momoledger/internal/services"
	"momoledger/internal/storage"
)

type testEnv struct {
	server *Server
	creds  *services.CredentialService
	tokens *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	creds := services.NewCredentialService(repo, "admin123")
	if err := creds.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize credentials: %v", err)
	}

	ceiling, err := core.ParseAmount("10000000")
	if err != nil {
		t.Fatalf("parse ceiling: %v", err)
	}

	ledger := services.NewLedgerService(repo, nil, ceiling)
	tokens := auth.NewManager("test-secret", time.Hour)
	srv := NewServer(":0", creds, ledger, repo, tokens)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{server: srv, creds: creds, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func (e *testEnv) createAgent(t *testing.T, adminToken, username, password string) userResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/users", adminToken, map[string]string{
		"username": username,
		"password": password,
		"role":     "agent",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create agent %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	return resp
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("token is empty")
	}
	if resp.User.Username != "admin" || resp.User.Role != "admin" {
		t.Errorf("user = %+v, want admin/admin", resp.User)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"unknown user", "ghost", "admin123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
				"username": tt.username,
				"password": tt.password,
			})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/transactions"},
		{http.MethodGet, "/api/transactions/mine"},
		{http.MethodGet, "/api/balance"},
		{http.MethodGet, "/api/agents"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/balance", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestAdminRoutesRejectAgents(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createAgent(t, adminToken, "kadi", "secret1")
	agentToken := env.login(t, "kadi", "secret1")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/users"},
		{http.MethodGet, "/api/agents"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/summary/daily"},
		{http.MethodGet, "/api/summary/operators"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, agentToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as agent: status = %d, want 403", p.method, p.path, rec.Code)
		}
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")

	user := env.createAgent(t, adminToken, "fatou", "secret1")
	if user.Username != "fatou" || user.Role != "agent" {
		t.Errorf("user = %+v, want fatou/agent", user)
	}

	rec := env.do(t, http.MethodPost, "/api/users", adminToken, map[string]string{
		"username": "fatou",
		"password": "secret1",
		"role":     "agent",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate username: status = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/users", adminToken, map[string]string{
		"username":         "moussa",
		"password":         "secret1",
		"confirm_password": "different",
		"role":             "agent",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("password mismatch: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/users", adminToken, map[string]string{
		"username": "moussa",
		"password": "short",
		"role":     "agent",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rec.Code)
	}
}

func TestListAgents(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createAgent(t, adminToken, "zalissa", "secret1")
	env.createAgent(t, adminToken, "abdoul", "secret1")

	rec := env.do(t, http.MethodGet, "/api/agents", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var agents []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &agents); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("len(agents) = %d, want 2", len(agents))
	}
	if agents[0].Username != "abdoul" || agents[1].Username != "zalissa" {
		t.Errorf("agents out of order: %s, %s", agents[0].Username, agents[1].Username)
	}
}

func TestRecordTransaction(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	agent := env.createAgent(t, adminToken, "kadi", "secret1")
	agentToken := env.login(t, "kadi", "secret1")

	rec := env.do(t, http.MethodPost, "/api/transactions", agentToken, map[string]string{
		"operator": "Orange Money",
		"type":     "Deposit",
		"amount":   "2500.50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var tx transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.AgentID != agent.ID {
		t.Errorf("agent_id = %d, want %d", tx.AgentID, agent.ID)
	}
	if tx.Amount != "2500.50" {
		t.Errorf("amount = %q, want 2500.50", tx.Amount)
	}
	if tx.Operator != "Orange Money" || tx.Type != "Deposit" {
		t.Errorf("tx = %+v", tx)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createAgent(t, adminToken, "kadi", "secret1")
	agentToken := env.login(t, "kadi", "secret1")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"placeholder operator", map[string]string{"operator": "Select an operator", "type": "Deposit", "amount": "100"}},
		{"unknown operator", map[string]string{"operator": "M-Pesa", "type": "Deposit", "amount": "100"}},
		{"bad type", map[string]string{"operator": "Wave", "type": "Transfer", "amount": "100"}},
		{"negative amount", map[string]string{"operator": "Wave", "type": "Deposit", "amount": "-5"}},
		{"zero amount", map[string]string{"operator": "Wave", "type": "Deposit", "amount": "0"}},
		{"unparseable amount", map[string]string{"operator": "Wave", "type": "Deposit", "amount": "abc"}},
		{"over ceiling", map[string]string{"operator": "Wave", "type": "Deposit", "amount": "10000001"}},
		{"missing fields", map[string]string{"operator": "Wave"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/transactions", agentToken, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMyTransactionsAndAll(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createAgent(t, adminToken, "kadi", "secret1")
	env.createAgent(t, adminToken, "fatou", "secret1")
	kadiToken := env.login(t, "kadi", "secret1")
	fatouToken := env.login(t, "fatou", "secret1")

	record := func(token, operator, txType, amount string) {
		rec := env.do(t, http.MethodPost, "/api/transactions", token, map[string]string{
			"operator": operator, "type": txType, "amount": amount,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("record: status %d, body %s", rec.Code, rec.Body.String())
		}
	}
	record(kadiToken, "Orange Money", "Deposit", "1000")
	record(kadiToken, "Wave", "Withdrawal", "400")
	record(fatouToken, "Moov Money", "Deposit", "750")

	rec := env.do(t, http.MethodGet, "/api/transactions/mine", kadiToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mine: status %d", rec.Code)
	}
	var mine []transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("len(mine) = %d, want 2", len(mine))
	}

	rec = env.do(t, http.MethodGet, "/api/transactions", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("all: status %d", rec.Code)
	}
	var all []transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for _, tx := range all {
		if tx.Username == "" {
			t.Errorf("transaction %d has no username", tx.ID)
		}
	}
}

func TestBalance(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	agent := env.createAgent(t, adminToken, "kadi", "secret1")
	agentToken := env.login(t, "kadi", "secret1")

	record := func(txType, amount string) {
		rec := env.do(t, http.MethodPost, "/api/transactions", agentToken, map[string]string{
			"operator": "Orange Money", "type": txType, "amount": amount,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("record: status %d, body %s", rec.Code, rec.Body.String())
		}
	}
	record("Deposit", "50000")
	record("Withdrawal", "20000")

	rec := env.do(t, http.MethodGet, "/api/balance", agentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var bal balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bal.Balance != "30000.00" {
		t.Errorf("balance = %q, want 30000.00", bal.Balance)
	}

	rec = env.do(t, http.MethodGet, "/api/balance?agent_id=2", agentToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("agent querying others: status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/balance?agent_id="+strconv.FormatInt(agent.ID, 10), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin query: status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bal.Balance != "30000.00" {
		t.Errorf("admin view balance = %q, want 30000.00", bal.Balance)
	}
}

func TestSummaries(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin", "admin123")
	env.createAgent(t, adminToken, "kadi", "secret1")
	agentToken := env.login(t, "kadi", "secret1")

	for _, body := range []map[string]string{
		{"operator": "Orange Money", "type": "Deposit", "amount": "1000"},
		{"operator": "Orange Money", "type": "Deposit", "amount": "500"},
		{"operator": "Wave", "type": "Withdrawal", "amount": "300"},
	} {
		rec := env.do(t, http.MethodPost, "/api/transactions", agentToken, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("record: status %d", rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/summary/operators", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("operators: status %d", rec.Code)
	}
	var ops []operatorSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ops); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2", len(ops))
	}

	rec = env.do(t, http.MethodGet, "/api/summary/daily?days=30", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("daily: status %d", rec.Code)
	}
	var daily []dailySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &daily); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("len(daily) = %d, want 2", len(daily))
	}

	rec = env.do(t, http.MethodGet, "/api/summary/daily?days=-1", adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative window: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/summary/daily?days=junk", adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("junk window: status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: status = %d, want 200", rec.Code)
	}
}
