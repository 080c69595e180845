package api

import (
	"errors"
	"net/http"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type accountRequest struct {
	Name string `json:"name"`
	Card string `json:"card"`
	Bank string `json:"bank"`
}

// createAccount handles POST /accounts
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := s.ledger.CreateAccount(r.Context(), req.Name, req.Card, req.Bank)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, account)
}

// listAccounts handles GET /accounts
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// updateAccount handles PATCH /accounts/{id}
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
		Card *string `json:"card"`
		Bank *string `json:"bank"`
	}
	if !decode(w, r, &req) {
		return
	}

	account, err := s.ledger.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Card != nil {
		account.Card = *req.Card
	}
	if req.Bank != nil {
		account.Bank = *req.Bank
	}

	account, err = s.ledger.UpdateAccount(r.Context(), account)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

// deleteAccount handles DELETE /accounts/{id}
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getBalance handles GET /accounts/balance?account_id=
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "account_id is a mandatory field")
		return
	}

	balance, err := s.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		AccountID string          `json:"account_id"`
		Balance   decimal.Decimal `json:"balance"`
	}{accountID, balance})
}

// verifyAccount handles GET /accounts/{id}/verify
func (s *Server) verifyAccount(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	computed, err := s.ledger.VerifyBalance(r.Context(), accountID)

	stored := computed
	var mismatch *ledger.BalanceMismatchError
	if errors.As(err, &mismatch) {
		stored = mismatch.Stored
	} else if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		AccountID  string          `json:"account_id"`
		Stored     decimal.Decimal `json:"stored"`
		Computed   decimal.Decimal `json:"computed"`
		Consistent bool            `json:"consistent"`
	}{accountID, stored, computed, err == nil})
}

// createTransaction handles POST /transactions
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.Transaction
	if !decode(w, r, &req) {
		return
	}
	req.Recurring = false

	tx, err := s.ledger.PostTransaction(r.Context(), req)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, tx)
}

// listTransactions handles GET /transactions?account_id=
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context(), accountFilter(r)...)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// editTransaction handles PATCH /transactions/{id}
func (s *Server) editTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description *string           `json:"description"`
		Direction   *models.Direction `json:"type"`
		Amount      *decimal.Decimal  `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}

	tx, err := s.ledger.EditTransaction(r.Context(), r.PathValue("id"), ledger.TransactionPatch{
		Description: req.Description,
		Direction:   req.Direction,
		Amount:      req.Amount,
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tx)
}

// deleteTransaction handles DELETE /transactions/{id}
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createRecurring handles POST /recurring
func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req models.RecurringRule
	if !decode(w, r, &req) {
		return
	}

	rule, n, err := s.ledger.CreateRecurringRule(r.Context(), req, s.today())
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"rule":         rule,
		"materialized": n,
	})
}

// listRecurring handles GET /recurring?account_id=
func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	rules, err := s.ledger.ListRecurringRules(r.Context(), accountFilter(r)...)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// updateRecurring handles PATCH /recurring/{id}
func (s *Server) updateRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description *string           `json:"description"`
		Direction   *models.Direction `json:"type"`
		Interval    *models.Interval  `json:"interval"`
		Amount      *decimal.Decimal  `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}

	rule, err := s.ledger.UpdateRecurringRule(r.Context(), r.PathValue("id"), ledger.RulePatch{
		Description: req.Description,
		Direction:   req.Direction,
		Interval:    req.Interval,
		Amount:      req.Amount,
	})
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rule)
}

// deleteRecurring handles DELETE /recurring/{id}
func (s *Server) deleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRecurringRule(r.Context(), r.PathValue("id")); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type failureResponse struct {
	RuleID    string `json:"rule_id"`
	AccountID string `json:"account_id"`
	Error     string `json:"error"`
}

// checkDue handles POST /recurring/check. An optional ?today=YYYY-MM-DD overrides the clock.
func (s *Server) checkDue(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	if v := r.URL.Query().Get("today"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid today: "+err.Error())
			return
		}
		today = d
	}

	// per-rule failures are reported in the body, not as a failed request
	report, err := s.ledger.CheckDue(r.Context(), today)
	if err != nil && len(report.Failures) == 0 {
		s.writeLedgerError(w, r, err)
		return
	}

	failures := make([]failureResponse, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, failureResponse{RuleID: f.RuleID, AccountID: f.AccountID, Error: f.Err.Error()})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"today":        today,
		"rules":        report.Rules,
		"materialized": report.Materialized,
		"failures":     failures,
	})
}
