package services

import (
	"context"
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// fakeStore is an in-memory storage.Store used by the service tests.
type fakeStore struct {
	nextID       int64
	users        map[int64]core.User
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	alerts       []storage.Alert
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]core.User),
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(_ context.Context, u core.User) (core.User, error) {
	u.ID = f.id()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context, _ storage.Page) ([]core.User, error) {
	var users []core.User
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u core.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return storage.ErrNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) ListRoles(_ context.Context) ([]core.Role, error) {
	return []core.Role{{ID: core.RoleAdmin, Name: "admin"}, {ID: core.RoleUser, Name: "user"}}, nil
}

func (f *fakeStore) CreateRole(_ context.Context, r core.Role) (core.Role, error) {
	r.ID = f.id()
	return r, nil
}

func (f *fakeStore) UpdateRole(_ context.Context, _ core.Role) error { return nil }
func (f *fakeStore) DeleteRole(_ context.Context, _ int64) error     { return nil }

func (f *fakeStore) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	a.ID = f.id()
	return a, nil
}

func (f *fakeStore) GetAccount(_ context.Context, _ int64) (core.Account, error) {
	return core.Account{}, storage.ErrNotFound
}

func (f *fakeStore) ListAccounts(_ context.Context, _ int64, _ storage.Page) ([]core.Account, error) {
	return nil, nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, _ core.Account) error { return nil }
func (f *fakeStore) DeleteAccount(_ context.Context, _ int64) error        { return nil }

func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.ID = f.id()
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCategories(_ context.Context, userID int64, t core.CategoryType) ([]core.Category, error) {
	var categories []core.Category
	for _, c := range f.categories {
		if c.UserID != userID {
			continue
		}
		if t != "" && c.Type != t {
			continue
		}
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, c core.Category) error {
	old, ok := f.categories[c.ID]
	if !ok || old.UserID != c.UserID {
		return storage.ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, userID, id int64) error {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return storage.ErrNotFound
	}
	for _, tx := range f.transactions {
		if tx.CategoryID == id {
			return storage.ErrInUse
		}
	}
	for bid, b := range f.budgets {
		if b.CategoryID == id {
			delete(f.budgets, bid)
		}
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = f.id()
	f.transactions[tx.ID] = tx
	return tx, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, userID int64, filter storage.TransactionFilter) ([]core.Transaction, error) {
	var txs []core.Transaction
	for _, tx := range f.transactions {
		if tx.UserID != userID {
			continue
		}
		if filter.CategoryID != 0 && tx.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Type != "" {
			if c, ok := f.categories[tx.CategoryID]; !ok || c.Type != filter.Type {
				continue
			}
		}
		if filter.From != nil && tx.Date.Before(core.DateOnly(*filter.From)) {
			continue
		}
		if filter.To != nil && tx.Date.After(core.DateOnly(*filter.To)) {
			continue
		}
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func (f *fakeStore) ListCategoryTransactions(_ context.Context, userID, categoryID int64) ([]core.Transaction, error) {
	var txs []core.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID && tx.CategoryID == categoryID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })
	return txs, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	old, ok := f.transactions[tx.ID]
	if !ok || old.UserID != tx.UserID {
		return storage.ErrNotFound
	}
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, userID, id int64) error {
	tx, ok := f.transactions[id]
	if !ok || tx.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) MonthTotals(_ context.Context, userID int64, year int, month time.Month) (core.Money, core.Money, error) {
	var income, expense core.Money
	for _, tx := range f.transactions {
		if tx.UserID != userID || tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		c := f.categories[tx.CategoryID]
		if c.Type == core.CategoryIncome {
			income.Cents += tx.Amount.Cents
		} else {
			expense.Cents += tx.Amount.Cents
		}
	}
	return income, expense, nil
}

func (f *fakeStore) CreateBudget(_ context.Context, b core.Budget, today time.Time) (core.Budget, error) {
	for _, other := range f.budgets {
		if other.UserID == b.UserID && other.CategoryID == b.CategoryID && other.ActiveOn(today) {
			return core.Budget{}, storage.ErrDuplicateActiveBudget
		}
	}
	b.ID = f.id()
	f.budgets[b.ID] = b
	return b, nil
}

func (f *fakeStore) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	b, ok := f.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	var budgets []core.Budget
	for _, b := range f.budgets {
		if b.UserID == userID {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

func (f *fakeStore) ListNotifyBudgets(_ context.Context, userID, categoryID int64) ([]core.Budget, error) {
	var budgets []core.Budget
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
		budgets = append(budgets, b)
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

func (f *fakeStore) UpdateBudget(_ context.Context, b core.Budget) error {
	old, ok := f.budgets[b.ID]
	if !ok || old.UserID != b.UserID {
		return storage.ErrNotFound
	}
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeStore) DeleteBudget(_ context.Context, userID, id int64) error {
	b, ok := f.budgets[id]
	if !ok || b.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.budgets, id)
	return nil
}

func (f *fakeStore) InsertAlert(_ context.Context, alert storage.Alert) (storage.Alert, error) {
	alert.ID = f.id()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	f.alerts = append(f.alerts, alert)
	return alert, nil
}

func (f *fakeStore) HasAlertOn(_ context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error) {
	start := core.DateOnly(day)
	end := start.AddDate(0, 0, 1)
	for _, a := range f.alerts {
		if a.BudgetID == budgetID && a.Level == level && !a.CreatedAt.Before(start) && a.CreatedAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListAlerts(_ context.Context, userID int64, limit int) ([]storage.Alert, error) {
	var alerts []storage.Alert
	for _, a := range f.alerts {
		if a.UserID == userID {
			alerts = append(alerts, a)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (f *fakeStore) Close() error { return nil }
