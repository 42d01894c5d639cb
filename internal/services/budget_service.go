package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService handles budget writes and usage reporting.
type BudgetService struct {
	store storage.Store
	now   func() time.Time
}

func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store, now: time.Now}
}

// Create validates a budget and saves it. Budgets attach only to expense
// categories owned by the same user; a user/category pair may hold at
// most one active budget at a time.
func (s *BudgetService) Create(ctx context.Context, budget core.Budget) (core.Budget, error) {
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}

	category, err := s.store.GetCategory(ctx, budget.UserID, budget.CategoryID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("resolve category: %w", err)
	}
	if category.Type != core.CategoryExpense {
		return core.Budget{}, core.ErrIncomeCategoryBudget
	}

	created, err := s.store.CreateBudget(ctx, budget, s.now())
	if err != nil {
		return core.Budget{}, err
	}
	return created, nil
}

// Update validates and updates an existing budget.
func (s *BudgetService) Update(ctx context.Context, budget core.Budget) (core.Budget, error) {
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, budget); err != nil {
		return core.Budget{}, err
	}
	return s.store.GetBudget(ctx, budget.UserID, budget.ID)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

// ListWithUsage returns every budget of the user together with its
// computed usage as of today.
func (s *BudgetService) ListWithUsage(ctx context.Context, userID int64) ([]core.BudgetUsage, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	today := s.now()
	usages := make([]core.BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		txs, err := s.store.ListCategoryTransactions(ctx, userID, b.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("list budget transactions: %w", err)
		}
		usages = append(usages, core.ComputeUsage(b, txs, today))
	}
	return usages, nil
}

// Usage computes usage for a single budget as of today.
func (s *BudgetService) Usage(ctx context.Context, userID, id int64) (core.BudgetUsage, error) {
	budget, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetUsage{}, err
	}
	txs, err := s.store.ListCategoryTransactions(ctx, userID, budget.CategoryID)
	if err != nil {
		return core.BudgetUsage{}, fmt.Errorf("list budget transactions: %w", err)
	}
	return core.ComputeUsage(budget, txs, s.now()), nil
}

// Dashboard aggregates the user's budget overview for the current month.
type Dashboard struct {
	Stats         core.BudgetStats
	Alerts        []core.BudgetUsage
	MonthIncome   core.Money
	MonthExpenses core.Money
	MonthNet      core.Money
}

// Dashboard builds the per-user overview: budget stats, the top active
// alerts, and income/expense/net totals for the current month.
func (s *BudgetService) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	usages, err := s.ListWithUsage(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	today := s.now()
	income, expenses, err := s.store.MonthTotals(ctx, userID, today.Year(), today.Month())
	if err != nil {
		return Dashboard{}, fmt.Errorf("month totals: %w", err)
	}

	return Dashboard{
		Stats:         core.SummarizeBudgets(usages),
		Alerts:        core.ActiveAlerts(usages, core.DashboardAlertLimit),
		MonthIncome:   income,
		MonthExpenses: expenses,
		MonthNet:      core.Money{Cents: income.Cents - expenses.Cents},
	}, nil
}
