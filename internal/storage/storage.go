// Package storage defines the persistence contract shared by the
// sqlite and postgres backends. Handlers and services depend on this
// interface, never on a concrete store.
package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInUse guards referential integrity enforced at the
	// application layer: a category with transactions cannot be
	// deleted.
	ErrInUse = errors.New("record is referenced by existing transactions")

	// ErrDuplicateActiveBudget enforces at most one active budget per
	// (user, category) pair.
	ErrDuplicateActiveBudget = errors.New("an active budget already exists for this category")
)

// Page bounds list queries. A zero Limit falls back to the store default.
type Page struct {
	Limit  int
	Offset int
}

// TransactionFilter narrows transaction lists and exports.
type TransactionFilter struct {
	CategoryID int64             // 0 = all categories
	Type       core.CategoryType // "" = both types
	From       *time.Time
	To         *time.Time
	Page
}

// Alert is a persisted budget alert written by the worker and read by
// the dashboard feed.
type Alert struct {
	ID          int64
	BudgetID    int64
	UserID      int64
	Level       core.BudgetStatus
	PercentUsed float64
	Spent       core.Money
	CreatedAt   time.Time
}

// Store is the full persistence surface. Categories, transactions, and
// budgets are owner-scoped: every accessor takes the owning user's id
// and cannot cross user boundaries. The admin surface operates on the
// same scoped methods on behalf of a target user.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user core.User) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	ListUsers(ctx context.Context, page Page) ([]core.User, error)
	UpdateUser(ctx context.Context, user core.User) error
	DeleteUser(ctx context.Context, id int64) error

	// Roles
	ListRoles(ctx context.Context) ([]core.Role, error)
	CreateRole(ctx context.Context, role core.Role) (core.Role, error)
	UpdateRole(ctx context.Context, role core.Role) error
	DeleteRole(ctx context.Context, id int64) error

	// Accounts (admin-only entity)
	CreateAccount(ctx context.Context, account core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, userID int64, page Page) ([]core.Account, error)
	UpdateAccount(ctx context.Context, account core.Account) error
	DeleteAccount(ctx context.Context, id int64) error

	// Categories
	CreateCategory(ctx context.Context, category core.Category) (core.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
	ListCategories(ctx context.Context, userID int64, t core.CategoryType) ([]core.Category, error)
	UpdateCategory(ctx context.Context, category core.Category) error
	// DeleteCategory returns ErrInUse when transactions still
	// reference the category; nothing is deleted in that case.
	DeleteCategory(ctx context.Context, userID, id int64) error

	// Transactions
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]core.Transaction, error)
	// ListCategoryTransactions returns every transaction of one
	// category, the input set of the budget usage calculator.
	ListCategoryTransactions(ctx context.Context, userID, categoryID int64) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
	// MonthTotals sums income and expense magnitudes for one calendar
	// month.
	MonthTotals(ctx context.Context, userID int64, year int, month time.Month) (income, expense core.Money, err error)

	// Budgets. CreateBudget runs the duplicate-active check and the
	// insert inside one transaction and returns
	// ErrDuplicateActiveBudget when another budget for the pair is
	// active on the given day.
	CreateBudget(ctx context.Context, budget core.Budget, today time.Time) (core.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	// ListNotifyBudgets returns budgets with the notify flag set;
	// userID and categoryID of 0 mean unfiltered.
	ListNotifyBudgets(ctx context.Context, userID, categoryID int64) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, budget core.Budget) error
	DeleteBudget(ctx context.Context, userID, id int64) error

	// Budget alerts
	InsertAlert(ctx context.Context, alert Alert) (Alert, error)
	// HasAlertOn reports whether an alert at the same level was
	// already recorded for the budget on the given day.
	HasAlertOn(ctx context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error)
	ListAlerts(ctx context.Context, userID int64, limit int) ([]Alert, error)

	Close() error
}

// DefaultPageLimit bounds unpaginated list requests.
const DefaultPageLimit = 50

// Normalize clamps a page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
