package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
)

func (s *Server) budgetFromRequest(req budgetRequest, userID, id int64) (core.Budget, error) {
	cents, err := amountCents(req.AmountCents, req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}

	budget := core.Budget{
		ID:         id,
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Period:     core.Period(req.Period),
		StartDate:  core.DateOnly(start),
		Notify:     req.Notify,
	}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return core.Budget{}, err
		}
		end = core.DateOnly(end)
		budget.EndDate = &end
	}
	return budget, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.listBudgets(w, r, principal.UserID)
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request, userID int64) {
	usages, err := s.deps.Budgets.ListWithUsage(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok",
		newBudgetUsageViews(usages, s.currencyFor(r, userID)))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	s.createBudget(w, r, principal.UserID)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := s.budgetFromRequest(req, userID, 0)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.deps.Budgets.Create(r.Context(), budget)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "budget created",
		newBudgetView(created, s.currencyFor(r, userID)))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.getBudget(w, r, principal.UserID, id)
}

func (s *Server) getBudget(w http.ResponseWriter, r *http.Request, userID, id int64) {
	budget, err := s.deps.Budgets.Get(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", newBudgetView(budget, s.currencyFor(r, userID)))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.updateBudget(w, r, principal.UserID, id)
}

func (s *Server) updateBudget(w http.ResponseWriter, r *http.Request, userID, id int64) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := s.budgetFromRequest(req, userID, id)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.deps.Budgets.Update(r.Context(), budget)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budget updated",
		newBudgetView(updated, s.currencyFor(r, userID)))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.deleteBudget(w, r, principal.UserID, id)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request, userID, id int64) {
	if err := s.deps.Budgets.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budget deleted", nil)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	usage, err := s.deps.Budgets.Usage(r.Context(), principal.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok",
		newBudgetUsageView(usage, s.currencyFor(r, principal.UserID)))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	dashboard, err := s.deps.Budgets.Dashboard(r.Context(), principal.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user, err := s.deps.Store.GetUser(r.Context(), principal.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	currency := user.Currency
	view := dashboardView{
		BalanceCents: user.Balance.Cents,
		Balance:      user.Balance.Format(currency),
		Stats: budgetStatsView{
			Total:              dashboard.Stats.Total,
			Active:             dashboard.Stats.Active,
			Expired:            dashboard.Stats.Expired,
			TotalBudgetedCents: dashboard.Stats.TotalBudgeted.Cents,
			TotalBudgeted:      dashboard.Stats.TotalBudgeted.Format(currency),
			TotalSpentCents:    dashboard.Stats.TotalSpent.Cents,
			TotalSpent:         dashboard.Stats.TotalSpent.Format(currency),
		},
		Alerts:             newBudgetUsageViews(dashboard.Alerts, currency),
		MonthIncomeCents:   dashboard.MonthIncome.Cents,
		MonthIncome:        dashboard.MonthIncome.Format(currency),
		MonthExpensesCents: dashboard.MonthExpenses.Cents,
		MonthExpenses:      dashboard.MonthExpenses.Format(currency),
		MonthNetCents:      dashboard.MonthNet.Cents,
		MonthNet:           dashboard.MonthNet.Format(currency),
	}
	respond.JSON(w, http.StatusOK, "ok", view)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	alerts, err := s.deps.Store.ListAlerts(r.Context(), principal.UserID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	currency := s.currencyFor(r, principal.UserID)
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, newAlertView(a, currency))
	}
	respond.JSON(w, http.StatusOK, "ok", views)
}
