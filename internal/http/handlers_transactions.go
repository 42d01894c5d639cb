package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
)

func (s *Server) currencyFor(r *http.Request, userID int64) string {
	user, err := s.deps.Store.GetUser(r.Context(), userID)
	if err != nil {
		return core.DefaultCurrency
	}
	return user.Currency
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.listTransactions(w, r, principal.UserID)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.deps.Transactions.List(r.Context(), userID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	currency := s.currencyFor(r, userID)
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, newTransactionView(tx, currency))
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}

func (s *Server) transactionFromRequest(req transactionRequest, userID, id int64) (core.Transaction, error) {
	cents, err := amountCents(req.AmountCents, req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: cents},
		Description: req.Description,
		Date:        core.DateOnly(date),
		Recurring:   req.Recurring,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.createTransaction(w, r, principal.UserID)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactionFromRequest(req, userID, 0)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.deps.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "transaction created",
		newTransactionView(created, s.currencyFor(r, userID)))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.getTransaction(w, r, principal.UserID, id)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request, userID, id int64) {
	tx, err := s.deps.Transactions.Get(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newTransactionView(tx, s.currencyFor(r, userID)))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.updateTransaction(w, r, principal.UserID, id)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, userID, id int64) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.transactionFromRequest(req, userID, id)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.deps.Transactions.Update(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction updated",
		newTransactionView(updated, s.currencyFor(r, userID)))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.deleteTransaction(w, r, principal.UserID, id)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, userID, id int64) {
	if err := s.deps.Transactions.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction deleted", nil)
}
