package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
	today  func() models.Date
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the source of "today" used for catch-up.
func WithClock(today func() models.Date) Option {
	return func(s *Server) { s.today = today }
}

func NewServer(l *ledger.Ledger, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{ledger: l, log: log, today: models.Today}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /accounts", s.createAccount)
	mux.HandleFunc("GET /accounts", s.listAccounts)
	mux.HandleFunc("GET /accounts/balance", s.getBalance)
	mux.HandleFunc("PATCH /accounts/{id}", s.updateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.deleteAccount)
	mux.HandleFunc("GET /accounts/{id}/verify", s.verifyAccount)

	mux.HandleFunc("POST /transactions", s.createTransaction)
	mux.HandleFunc("GET /transactions", s.listTransactions)
	mux.HandleFunc("PATCH /transactions/{id}", s.editTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.deleteTransaction)

	mux.HandleFunc("POST /recurring", s.createRecurring)
	mux.HandleFunc("GET /recurring", s.listRecurring)
	mux.HandleFunc("POST /recurring/check", s.checkDue)
	mux.HandleFunc("PATCH /recurring/{id}", s.updateRecurring)
	mux.HandleFunc("DELETE /recurring/{id}", s.deleteRecurring)

	return Recovery(s.log)(Logger(s.log)(mux))
}

// writeLedgerError maps a ledger error to a status code.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		storeErr         *storage.StoreError
		invalidInterval  *models.InvalidIntervalError
		invalidDirection *models.InvalidDirectionError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &storeErr):
		// a row the store could not decode is a server fault, whatever it wraps
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("store failure")
		WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.As(err, &invalidInterval),
		errors.As(err, &invalidDirection):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// accountFilter reads the optional account_id query parameter.
func accountFilter(r *http.Request) []string {
	if id := r.URL.Query().Get("account_id"); id != "" {
		return []string{id}
	}
	return nil
}
