package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedUser(t *testing.T, store *fakeStore) core.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), core.User{
		Username: "ana",
		Email:    "ana@example.com",
		RoleID:   core.RoleUser,
		Active:   true,
		Currency: "PYG",
	})
	require.NoError(t, err)
	return u
}

func seedCategory(t *testing.T, store *fakeStore, userID int64, ct core.CategoryType) core.Category {
	t.Helper()
	c, err := store.CreateCategory(context.Background(), core.Category{
		UserID: userID,
		Name:   "groceries",
		Type:   ct,
	})
	require.NoError(t, err)
	return c
}

func seedExpense(t *testing.T, store *fakeStore, userID, categoryID, cents int64, day time.Time) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), core.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      core.Money{Cents: cents},
		Description: "seed",
		Date:        core.DateOnly(day),
	})
	require.NoError(t, err)
	return tx
}

func TestBudgetServiceCreate(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	category := seedCategory(t, store, user.ID, core.CategoryExpense)

	svc := NewBudgetService(store)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	budget := core.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: 1_000_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	created, err := svc.Create(context.Background(), budget)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	// A second active budget for the same pair is rejected.
	_, err = svc.Create(context.Background(), budget)
	assert.ErrorIs(t, err, storage.ErrDuplicateActiveBudget)
}

func TestBudgetServiceRejectsIncomeCategory(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	category := seedCategory(t, store, user.ID, core.CategoryIncome)

	svc := NewBudgetService(store)

	_, err := svc.Create(context.Background(), core.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: 1_000_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, core.ErrIncomeCategoryBudget)
}

func TestBudgetServiceRejectsForeignCategory(t *testing.T) {
	store := newFakeStore()
	owner := seedUser(t, store)
	other := seedUser(t, store)
	category := seedCategory(t, store, owner.ID, core.CategoryExpense)

	svc := NewBudgetService(store)

	_, err := svc.Create(context.Background(), core.Budget{
		UserID:     other.ID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: 1_000_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBudgetServiceListWithUsage(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	category := seedCategory(t, store, user.ID, core.CategoryExpense)

	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	svc := NewBudgetService(store)
	svc.now = func() time.Time { return today }

	_, err := svc.Create(context.Background(), core.Budget{
		UserID:     user.ID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: 1_000_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Notify:     true,
	})
	require.NoError(t, err)

	seedExpense(t, store, user.ID, category.ID, 500_000, today.AddDate(0, 0, -3))
	seedExpense(t, store, user.ID, category.ID, 300_000, today.AddDate(0, 0, -1))
	// Outside the window, must not count.
	seedExpense(t, store, user.ID, category.ID, 900_000, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC))

	usages, err := svc.ListWithUsage(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)

	usage := usages[0]
	assert.Equal(t, int64(800_000), usage.Spent.Cents)
	assert.InDelta(t, 80.0, usage.PercentUsed, 0.001)
	assert.Equal(t, core.BudgetNearLimit, usage.Status)
	assert.Equal(t, int64(200_000), usage.Remaining.Cents)
}

func TestBudgetServiceDashboard(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store)
	expense := seedCategory(t, store, user.ID, core.CategoryExpense)
	income, err := store.CreateCategory(context.Background(), core.Category{
		UserID: user.ID, Name: "salary", Type: core.CategoryIncome,
	})
	require.NoError(t, err)

	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	svc := NewBudgetService(store)
	svc.now = func() time.Time { return today }

	_, err = svc.Create(context.Background(), core.Budget{
		UserID:     user.ID,
		CategoryID: expense.ID,
		Amount:     core.Money{Cents: 1_000_000},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Notify:     true,
	})
	require.NoError(t, err)

	seedExpense(t, store, user.ID, expense.ID, 1_200_000, today.AddDate(0, 0, -2))
	seedExpense(t, store, user.ID, income.ID, 5_000_000, today.AddDate(0, 0, -5))

	dashboard, err := svc.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, dashboard.Stats.Total)
	assert.Equal(t, 1, dashboard.Stats.Active)
	assert.Equal(t, int64(1_200_000), dashboard.Stats.TotalSpent.Cents)
	require.Len(t, dashboard.Alerts, 1)
	assert.Equal(t, core.BudgetExceeded, dashboard.Alerts[0].Status)
	assert.Equal(t, int64(5_000_000), dashboard.MonthIncome.Cents)
	assert.Equal(t, int64(1_200_000), dashboard.MonthExpenses.Cents)
	assert.Equal(t, int64(3_800_000), dashboard.MonthNet.Cents)
}
