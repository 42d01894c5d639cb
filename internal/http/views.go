package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// View types shape API responses. Amounts always carry both the raw
// cent magnitude and the formatted display string.

type userView struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	RoleID       int64  `json:"role_id"`
	Active       bool   `json:"active"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Currency     string `json:"currency"`
}

func newUserView(u core.User) userView {
	return userView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		RoleID:       u.RoleID,
		Active:       u.Active,
		BalanceCents: u.Balance.Cents,
		Balance:      u.Balance.Format(u.Currency),
		Currency:     u.Currency,
	}
}

type categoryView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func newCategoryView(c core.Category) categoryView {
	return categoryView{
		ID:    c.ID,
		Name:  c.Name,
		Type:  string(c.Type),
		Icon:  c.Icon,
		Color: c.Color,
	}
}

type transactionView struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Recurring   bool   `json:"recurring"`
}

func newTransactionView(tx core.Transaction, currency string) transactionView {
	return transactionView{
		ID:          tx.ID,
		CategoryID:  tx.CategoryID,
		AmountCents: tx.Amount.Cents,
		Amount:      tx.Amount.Format(currency),
		Description: tx.Description,
		Date:        tx.Date.Format(dateLayout),
		Recurring:   tx.Recurring,
	}
}

type budgetView struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Notify      bool    `json:"notify"`
}

func newBudgetView(b core.Budget, currency string) budgetView {
	v := budgetView{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.Format(currency),
		Period:      string(b.Period),
		StartDate:   b.StartDate.Format(dateLayout),
		Notify:      b.Notify,
	}
	if b.EndDate != nil {
		end := b.EndDate.Format(dateLayout)
		v.EndDate = &end
	}
	return v
}

type budgetUsageView struct {
	Budget         budgetView `json:"budget"`
	SpentCents     int64      `json:"spent_cents"`
	Spent          string     `json:"spent"`
	PercentUsed    float64    `json:"percent_used"`
	RemainingCents int64      `json:"remaining_cents"`
	Remaining      string     `json:"remaining"`
	Status         string     `json:"status"`
	Expired        bool       `json:"expired"`
}

func newBudgetUsageView(u core.BudgetUsage, currency string) budgetUsageView {
	return budgetUsageView{
		Budget:         newBudgetView(u.Budget, currency),
		SpentCents:     u.Spent.Cents,
		Spent:          u.Spent.Format(currency),
		PercentUsed:    u.PercentUsed,
		RemainingCents: u.Remaining.Cents,
		Remaining:      u.Remaining.Format(currency),
		Status:         string(u.Status),
		Expired:        u.Expired,
	}
}

func newBudgetUsageViews(usages []core.BudgetUsage, currency string) []budgetUsageView {
	views := make([]budgetUsageView, 0, len(usages))
	for _, u := range usages {
		views = append(views, newBudgetUsageView(u, currency))
	}
	return views
}

type budgetStatsView struct {
	Total              int    `json:"total"`
	Active             int    `json:"active"`
	Expired            int    `json:"expired"`
	TotalBudgetedCents int64  `json:"total_budgeted_cents"`
	TotalBudgeted      string `json:"total_budgeted"`
	TotalSpentCents    int64  `json:"total_spent_cents"`
	TotalSpent         string `json:"total_spent"`
}

type dashboardView struct {
	BalanceCents       int64             `json:"balance_cents"`
	Balance            string            `json:"balance"`
	Stats              budgetStatsView   `json:"stats"`
	Alerts             []budgetUsageView `json:"alerts"`
	MonthIncomeCents   int64             `json:"month_income_cents"`
	MonthIncome        string            `json:"month_income"`
	MonthExpensesCents int64             `json:"month_expenses_cents"`
	MonthExpenses      string            `json:"month_expenses"`
	MonthNetCents      int64             `json:"month_net_cents"`
	MonthNet           string            `json:"month_net"`
}

type alertView struct {
	ID          int64   `json:"id"`
	BudgetID    int64   `json:"budget_id"`
	Level       string  `json:"level"`
	PercentUsed float64 `json:"percent_used"`
	SpentCents  int64   `json:"spent_cents"`
	Spent       string  `json:"spent"`
	CreatedAt   string  `json:"created_at"`
}

func newAlertView(a storage.Alert, currency string) alertView {
	return alertView{
		ID:          a.ID,
		BudgetID:    a.BudgetID,
		Level:       string(a.Level),
		PercentUsed: a.PercentUsed,
		SpentCents:  a.Spent.Cents,
		Spent:       a.Spent.Format(currency),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

type roleView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type accountView struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Currency     string `json:"currency"`
	Active       bool   `json:"active"`
}

func newAccountView(a core.Account) accountView {
	return accountView{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		BalanceCents: a.Balance.Cents,
		Balance:      a.Balance.Format(a.Currency),
		Currency:     a.Currency,
		Active:       a.Active,
	}
}
