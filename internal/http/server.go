// Package http exposes the ledger facade as a JSON API. Presentation
// clients talk only to this surface.
package http

import (
	"context"
	"net/http"
	"time"

	"momoledger/internal/auth"
	"momoledger/internal/services"
	"momoledger/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Server struct {
	httpServer *http.Server
	creds      *services.CredentialService
	ledger     *services.LedgerService
	storage    *storage.SQLiteRepository
	tokens     *auth.Manager
	validate   *validator.Validate
	limiter    *rateLimiter
	started    time.Time
}

func NewServer(addr string, creds *services.CredentialService, ledger *services.LedgerService, store *storage.SQLiteRepository, tokens *auth.Manager) *Server {
	s := &Server{
		creds:    creds,
		ledger:   ledger,
		storage:  store,
		tokens:   tokens,
		validate: validator.New(),
		limiter:  newRateLimiter(),
		started:  time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/transactions", s.handleRecordTransaction)
			r.Get("/transactions/mine", s.handleMyTransactions)
			r.Get("/balance", s.handleBalance)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Post("/users", s.handleCreateUser)
				r.Get("/agents", s.handleListAgents)
				r.Get("/transactions", s.handleAllTransactions)
				r.Get("/summary/daily", s.handleDailySummary)
				r.Get("/summary/operators", s.handleOperatorSummary)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}
