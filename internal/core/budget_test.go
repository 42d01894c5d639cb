package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y, m, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func expenseTx(categoryID, cents int64, on time.Time) Transaction {
	return Transaction{CategoryID: categoryID, Amount: Money{Cents: cents}, Date: on}
}

func TestClassifyBoundaries(t *testing.T) {
	budget := Budget{CategoryID: 1, Amount: Money{Cents: 100000}, StartDate: date(2024, 1, 1)}
	today := date(2024, 6, 1)

	cases := []struct {
		spent  int64
		status BudgetStatus
	}{
		{79999, BudgetSafe},
		{80000, BudgetNearLimit},
		{100000, BudgetNearLimit}, // fully used is not yet exceeded
		{100001, BudgetExceeded},
	}
	for _, tc := range cases {
		u := ComputeUsage(budget, []Transaction{expenseTx(1, tc.spent, date(2024, 3, 15))}, today)
		if u.Status != tc.status {
			t.Fatalf("spent=%d: status %q, want %q (percent=%v)", tc.spent, u.Status, tc.status, u.PercentUsed)
		}
	}
}

func TestWindowInclusivity(t *testing.T) {
	budget := Budget{
		CategoryID: 7,
		Amount:     Money{Cents: 100000},
		StartDate:  date(2024, 2, 1),
		EndDate:    datePtr(2024, 2, 29),
	}
	today := date(2024, 3, 15)

	cases := []struct {
		name   string
		on     time.Time
		counts bool
	}{
		{"on start", date(2024, 2, 1), true},
		{"on end", date(2024, 2, 29), true},
		{"day before start", date(2024, 1, 31), false},
		{"day after end", date(2024, 3, 1), false},
	}
	for _, tc := range cases {
		u := ComputeUsage(budget, []Transaction{expenseTx(7, 5000, tc.on)}, today)
		counted := u.Spent.Cents == 5000
		if counted != tc.counts {
			t.Fatalf("%s: counted=%v, want %v", tc.name, counted, tc.counts)
		}
	}
}

func TestOpenEndedWindowEndsToday(t *testing.T) {
	budget := Budget{CategoryID: 3, Amount: Money{Cents: 100000}, StartDate: date(2024, 1, 1)}
	today := date(2024, 1, 20)

	txs := []Transaction{
		expenseTx(3, 1000, date(2024, 1, 20)), // today counts
		expenseTx(3, 9999, date(2024, 1, 21)), // tomorrow does not
	}
	u := ComputeUsage(budget, txs, today)
	if u.Spent.Cents != 1000 {
		t.Fatalf("spent = %d, want 1000", u.Spent.Cents)
	}
}

func TestNoTransactionsDefault(t *testing.T) {
	budget := Budget{CategoryID: 1, Amount: Money{Cents: 50000}, StartDate: date(2024, 1, 1)}
	u := ComputeUsage(budget, nil, date(2024, 1, 2))
	if u.Spent.Cents != 0 || u.PercentUsed != 0 || u.Status != BudgetSafe {
		t.Fatalf("fresh budget: got spent=%d percent=%v status=%q", u.Spent.Cents, u.PercentUsed, u.Status)
	}
	if u.Remaining.Cents != 50000 {
		t.Fatalf("remaining = %d, want 50000", u.Remaining.Cents)
	}
}

func TestOtherCategoryIgnored(t *testing.T) {
	budget := Budget{CategoryID: 1, Amount: Money{Cents: 50000}, StartDate: date(2024, 1, 1)}
	u := ComputeUsage(budget, []Transaction{expenseTx(2, 40000, date(2024, 1, 5))}, date(2024, 1, 10))
	if u.Spent.Cents != 0 {
		t.Fatalf("foreign category counted: spent=%d", u.Spent.Cents)
	}
}

func TestRemainingGoesNegative(t *testing.T) {
	budget := Budget{CategoryID: 1, Amount: Money{Cents: 10000}, StartDate: date(2024, 1, 1)}
	u := ComputeUsage(budget, []Transaction{expenseTx(1, 15000, date(2024, 1, 5))}, date(2024, 1, 10))
	if u.Remaining.Cents != -5000 {
		t.Fatalf("remaining = %d, want -5000 (never clamped)", u.Remaining.Cents)
	}
	if u.Status != BudgetExceeded {
		t.Fatalf("status = %q, want exceeded", u.Status)
	}
}

func TestGroceriesScenario(t *testing.T) {
	// One expense category with a monthly budget of 1,000,000 cents
	// starting 2024-01-01, open-ended, and two January transactions.
	budget := Budget{
		ID:         1,
		CategoryID: 42,
		Amount:     Money{Cents: 1000000},
		Period:     PeriodMonthly,
		StartDate:  date(2024, 1, 1),
		Notify:     true,
	}
	txs := []Transaction{
		expenseTx(42, 300000, date(2024, 1, 10)),
		expenseTx(42, 500000, date(2024, 1, 20)),
	}
	u := ComputeUsage(budget, txs, date(2024, 1, 31))

	if u.Spent.Cents != 800000 {
		t.Fatalf("spent = %d, want 800000", u.Spent.Cents)
	}
	if u.PercentUsed != 80.0 {
		t.Fatalf("percentUsed = %v, want 80.0", u.PercentUsed)
	}
	if u.Status != BudgetNearLimit {
		t.Fatalf("status = %q, want near_limit", u.Status)
	}
	if u.Remaining.Cents != 200000 {
		t.Fatalf("remaining = %d, want 200000", u.Remaining.Cents)
	}
}

func TestActiveAlerts(t *testing.T) {
	today := date(2024, 5, 1)
	mk := func(id int64, notify bool, end *time.Time, limit, spent int64) BudgetUsage {
		b := Budget{ID: id, CategoryID: id, Amount: Money{Cents: limit}, StartDate: date(2024, 1, 1), EndDate: end, Notify: notify}
		return ComputeUsage(b, []Transaction{expenseTx(id, spent, date(2024, 2, 1))}, today)
	}

	usages := []BudgetUsage{
		mk(1, true, nil, 100000, 95000),                    // 95% -> alert
		mk(2, true, nil, 100000, 50000),                    // 50% -> safe, no alert
		mk(3, false, nil, 100000, 99000),                   // notify off
		mk(4, true, datePtr(2024, 3, 31), 100000, 120000),  // expired, suppressed
		mk(5, true, nil, 100000, 81000),                    // 81% -> alert
		mk(6, true, nil, 100000, 150000),                   // 150% -> alert
		mk(7, true, nil, 100000, 80000),                    // exactly 80% -> alert
		mk(8, true, nil, 100000, 85000),                    // 85% -> alert
		mk(9, true, nil, 100000, 90000),                    // 90% -> alert
	}

	alerts := ActiveAlerts(usages, DashboardAlertLimit)
	if len(alerts) != 5 {
		t.Fatalf("alerts = %d, want capped at 5", len(alerts))
	}
	want := []int64{6, 1, 9, 8, 5} // descending by percent used; the 80% one falls off the cap
	for i, id := range want {
		if alerts[i].Budget.ID != id {
			t.Fatalf("alerts[%d].ID = %d, want %d", i, alerts[i].Budget.ID, id)
		}
	}
}

func TestSummarizeBudgets(t *testing.T) {
	today := date(2024, 5, 1)
	active := ComputeUsage(
		Budget{ID: 1, CategoryID: 1, Amount: Money{Cents: 100000}, StartDate: date(2024, 1, 1)},
		[]Transaction{expenseTx(1, 40000, date(2024, 2, 1))}, today)
	expired := ComputeUsage(
		Budget{ID: 2, CategoryID: 2, Amount: Money{Cents: 200000}, StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 2, 29)},
		[]Transaction{expenseTx(2, 150000, date(2024, 2, 1))}, today)

	stats := SummarizeBudgets([]BudgetUsage{active, expired})
	if stats.Total != 2 || stats.Active != 1 || stats.Expired != 1 {
		t.Fatalf("counts: %+v", stats)
	}
	if stats.TotalBudgeted.Cents != 300000 {
		t.Fatalf("total budgeted = %d, want 300000", stats.TotalBudgeted.Cents)
	}
	// Spend of expired budgets stays out of the active total.
	if stats.TotalSpent.Cents != 40000 {
		t.Fatalf("total spent = %d, want 40000", stats.TotalSpent.Cents)
	}
}
