package core

import (
	"errors"
	"testing"
	"time"
)

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		name string
		cat  Category
		err  error
	}{
		{"valid expense", Category{Name: "Groceries", Type: CategoryExpense, Color: "#33cc66"}, nil},
		{"valid income no color", Category{Name: "Salary", Type: CategoryIncome}, nil},
		{"empty name", Category{Type: CategoryExpense}, ErrEmptyName},
		{"bad type", Category{Name: "x", Type: "transfer"}, ErrInvalidCategoryType},
		{"bad color", Category{Name: "x", Type: CategoryExpense, Color: "33cc66"}, ErrInvalidColor},
	}
	for _, tc := range cases {
		if err := tc.cat.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("%s: err=%v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{Amount: Money{Cents: 100}, Description: "coffee", Date: date(2024, 1, 1)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction: %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		err  error
	}{
		{"zero amount", Transaction{Description: "x", Date: date(2024, 1, 1)}, ErrInvalidAmount},
		{"negative amount", Transaction{Amount: Money{Cents: -5}, Description: "x", Date: date(2024, 1, 1)}, ErrInvalidAmount},
		{"blank description", Transaction{Amount: Money{Cents: 100}, Description: "  ", Date: date(2024, 1, 1)}, ErrEmptyDescription},
		{"zero date", Transaction{Amount: Money{Cents: 100}, Description: "x"}, ErrInvalidDate},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("%s: err=%v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{Amount: Money{Cents: 100000}, Period: PeriodMonthly, StartDate: date(2024, 1, 1)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget: %v", err)
	}

	cases := []struct {
		name   string
		budget Budget
		err    error
	}{
		{"zero limit", Budget{Period: PeriodMonthly, StartDate: date(2024, 1, 1)}, ErrInvalidAmount},
		{"bad period", Budget{Amount: Money{Cents: 1}, Period: "biweekly", StartDate: date(2024, 1, 1)}, ErrInvalidPeriod},
		{"zero start", Budget{Amount: Money{Cents: 1}, Period: PeriodAnnual}, ErrInvalidDate},
		{"end before start", Budget{Amount: Money{Cents: 1}, Period: PeriodMonthly, StartDate: date(2024, 2, 1), EndDate: datePtr(2024, 1, 1)}, ErrEndBeforeStart},
	}
	for _, tc := range cases {
		if err := tc.budget.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("%s: err=%v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestBudgetActiveOn(t *testing.T) {
	today := date(2024, 6, 15)
	openEnded := Budget{StartDate: date(2024, 1, 1)}
	if !openEnded.ActiveOn(today) {
		t.Fatal("open-ended budget must be active")
	}
	endsToday := Budget{StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 6, 15)}
	if !endsToday.ActiveOn(today) {
		t.Fatal("budget ending today is still active")
	}
	endedYesterday := Budget{StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 6, 14)}
	if endedYesterday.ActiveOn(today) {
		t.Fatal("budget ended yesterday must be expired")
	}
	// Timestamps inside the day must not change the answer.
	noon := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	if !endsToday.ActiveOn(noon) {
		t.Fatal("day precision: noon on the end date is still active")
	}
}

func TestSignedCents(t *testing.T) {
	tx := Transaction{Amount: Money{Cents: 500}}
	if tx.SignedCents(CategoryIncome) != 500 {
		t.Fatal("income keeps positive sign")
	}
	if tx.SignedCents(CategoryExpense) != -500 {
		t.Fatal("expense flips sign")
	}
}
