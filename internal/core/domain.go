package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// CategoryType is fixed at category creation and determines how
// transactions against the category affect aggregates: income adds,
// expense subtracts.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Period is the budget repetition window.
type Period string

const (
	PeriodDaily      Period = "daily"
	PeriodWeekly     Period = "weekly"
	PeriodMonthly    Period = "monthly"
	PeriodQuarterly  Period = "quarterly"
	PeriodSemiannual Period = "semiannual"
	PeriodAnnual     Period = "annual"
)

// Role IDs. Role 1 reaches the admin surface, role 2 the user surface.
const (
	RoleAdmin int64 = 1
	RoleUser  int64 = 2
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyUsername        = errors.New("empty username")
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrInvalidColor         = errors.New("invalid color")
	ErrIncomeCategoryBudget = errors.New("budget category must be an expense category")
	ErrEndBeforeStart       = errors.New("end date before start date")
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	RoleID       int64
	Active       bool
	Balance      Money
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role struct {
	ID   int64
	Name string
}

// Account is an admin-managed entity; the user-facing surface keeps a
// balance directly on User.
type Account struct {
	ID       int64
	UserID   int64
	Name     string
	Balance  Money
	Currency string
	Active   bool
}

type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Type      CategoryType
	Icon      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction stores its amount as a non-negative magnitude; the sign is
// derived at read time from the referenced category's type.
type Transaction struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	Amount      Money
	Description string
	Date        time.Time
	Recurring   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Budget limits spending on one expense category. A nil EndDate means
// the budget is open-ended.
type Budget struct {
	ID         int64
	UserID     int64
	CategoryID int64
	Amount     Money
	Period     Period
	StartDate  time.Time
	EndDate    *time.Time
	Notify     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodSemiannual, PeriodAnnual:
		return true
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	if c.Color != "" && !hexColor.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if b.EndDate != nil && DateOnly(*b.EndDate).Before(DateOnly(b.StartDate)) {
		return ErrEndBeforeStart
	}
	return nil
}

// ActiveOn reports whether the budget is active on the given day: the
// end date is null or on/after that day.
func (b Budget) ActiveOn(today time.Time) bool {
	return b.EndDate == nil || !DateOnly(*b.EndDate).Before(DateOnly(today))
}

// ExpiredOn is the complement of ActiveOn for budgets with an end date.
func (b Budget) ExpiredOn(today time.Time) bool {
	return !b.ActiveOn(today)
}

// SignedCents applies the category sign convention: income adds,
// expense subtracts.
func (t Transaction) SignedCents(ct CategoryType) int64 {
	if ct == CategoryExpense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// DateOnly truncates a timestamp to its calendar day in UTC. Budget
// windows and transaction dates compare at day precision.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
