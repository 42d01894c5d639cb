package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeAlertStore struct {
	budgets      []core.Budget
	transactions map[int64][]core.Transaction // keyed by category id
	alerts       []storage.Alert
}

func (f *fakeAlertStore) ListNotifyBudgets(_ context.Context, userID, categoryID int64) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range f.budgets {
		if !b.Notify {
			continue
		}
		if userID != 0 && b.UserID != userID {
			continue
		}
		if categoryID != 0 && b.CategoryID != categoryID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeAlertStore) ListCategoryTransactions(_ context.Context, _, categoryID int64) ([]core.Transaction, error) {
	return f.transactions[categoryID], nil
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, alert storage.Alert) (storage.Alert, error) {
	alert.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, alert)
	return alert, nil
}

func (f *fakeAlertStore) HasAlertOn(_ context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error) {
	start := core.DateOnly(day)
	end := start.AddDate(0, 0, 1)
	for _, a := range f.alerts {
		if a.BudgetID == budgetID && a.Level == level && !a.CreatedAt.Before(start) && a.CreatedAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

type recordingMirror struct {
	appended []storage.Alert
	err      error
}

func (m *recordingMirror) AppendAlert(_ context.Context, alert storage.Alert, _ core.Budget) error {
	m.appended = append(m.appended, alert)
	return m.err
}

func notifyBudget(id, userID, categoryID, limitCents int64) core.Budget {
	return core.Budget{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: limitCents},
		Period:     core.PeriodMonthly,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Notify:     true,
	}
}

func expenseOn(categoryID, cents int64, day time.Time) core.Transaction {
	return core.Transaction{
		CategoryID: categoryID,
		Amount:     core.Money{Cents: cents},
		Date:       core.DateOnly(day),
	}
}

func TestHandleCheckMessageRecordsAlert(t *testing.T) {
	today := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{notifyBudget(1, 7, 42, 1_000_000)},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 900_000, today.AddDate(0, 0, -1))},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	err := w.HandleCheckMessage(context.Background(), &amqp.BudgetCheckMessage{UserID: 7, CategoryID: 42})
	require.NoError(t, err)
	require.Len(t, store.alerts, 1)

	alert := store.alerts[0]
	assert.Equal(t, int64(1), alert.BudgetID)
	assert.Equal(t, core.BudgetNearLimit, alert.Level)
	assert.InDelta(t, 90.0, alert.PercentUsed, 0.001)
	assert.Equal(t, int64(900_000), alert.Spent.Cents)
}

func TestHandleCheckMessageSafeBudgetNoAlert(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{notifyBudget(1, 7, 42, 1_000_000)},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 100_000, today)},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	require.NoError(t, w.HandleCheckMessage(context.Background(), &amqp.BudgetCheckMessage{UserID: 7, CategoryID: 42}))
	assert.Empty(t, store.alerts)
}

func TestSameDayAlertNotDuplicated(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{notifyBudget(1, 7, 42, 1_000_000)},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 900_000, today)},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	msg := &amqp.BudgetCheckMessage{UserID: 7, CategoryID: 42}
	require.NoError(t, w.HandleCheckMessage(context.Background(), msg))
	require.NoError(t, w.HandleCheckMessage(context.Background(), msg))
	assert.Len(t, store.alerts, 1)
}

func TestLevelEscalationRecordsSecondAlert(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{notifyBudget(1, 7, 42, 1_000_000)},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 900_000, today)},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	msg := &amqp.BudgetCheckMessage{UserID: 7, CategoryID: 42}
	require.NoError(t, w.HandleCheckMessage(context.Background(), msg))

	// More spending pushes the budget over the limit the same day.
	store.transactions[42] = append(store.transactions[42], expenseOn(42, 200_000, today))
	require.NoError(t, w.HandleCheckMessage(context.Background(), msg))

	require.Len(t, store.alerts, 2)
	assert.Equal(t, core.BudgetNearLimit, store.alerts[0].Level)
	assert.Equal(t, core.BudgetExceeded, store.alerts[1].Level)
}

func TestExpiredBudgetSkipped(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	b := notifyBudget(1, 7, 42, 1_000_000)
	b.EndDate = &end

	store := &fakeAlertStore{
		budgets: []core.Budget{b},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 2_000_000, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC))},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	require.NoError(t, w.Sweep(context.Background()))
	assert.Empty(t, store.alerts)
}

func TestSweepCoversAllUsers(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{
			notifyBudget(1, 7, 42, 1_000_000),
			notifyBudget(2, 8, 43, 500_000),
		},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 1_500_000, today)},
			43: {expenseOn(43, 450_000, today)},
		},
	}

	w := NewAlertWorker(store, nil)
	w.now = func() time.Time { return today }

	require.NoError(t, w.Sweep(context.Background()))
	require.Len(t, store.alerts, 2)
	assert.Equal(t, core.BudgetExceeded, store.alerts[0].Level)
	assert.Equal(t, core.BudgetNearLimit, store.alerts[1].Level)
}

func TestMirrorFailureDoesNotFailAlert(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeAlertStore{
		budgets: []core.Budget{notifyBudget(1, 7, 42, 1_000_000)},
		transactions: map[int64][]core.Transaction{
			42: {expenseOn(42, 900_000, today)},
		},
	}
	mirror := &recordingMirror{err: assert.AnError}

	w := NewAlertWorker(store, mirror)
	w.now = func() time.Time { return today }

	require.NoError(t, w.Sweep(context.Background()))
	require.Len(t, store.alerts, 1)
	require.Len(t, mirror.appended, 1)
}
