// Package sqlite implements storage.Store on a local SQLite database
// using the CGO-free modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies pending
// migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// dsn makes every transaction start as BEGIN IMMEDIATE, so
// check-then-insert sequences like CreateBudget hold the write lock
// from the first statement instead of upgrading mid-transaction.
func dsn(dbPath string) string {
	return dbPath + "?_txlock=immediate"
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- users ---

const userColumns = "id, username, email, password_hash, role_id, active, balance_cents, currency, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.Active,
		&u.Balance.Cents, &u.Currency, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user core.User) (core.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role_id, active, balance_cents, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.RoleID, user.Active,
		user.Balance.Cents, user.Currency, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, storage.ErrAlreadyExists
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt, user.UpdatedAt = now, now
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]core.User, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user core.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, role_id = ?, active = ?,
		        balance_cents = ?, currency = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, user.RoleID, user.Active,
		user.Balance.Cents, user.Currency, time.Now().UTC(), user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

// --- roles ---

func (s *Store) ListRoles(ctx context.Context) ([]core.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []core.Role
	for rows.Next() {
		var r core.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *Store) CreateRole(ctx context.Context, role core.Role) (core.Role, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?)`, role.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Role{}, storage.ErrAlreadyExists
		}
		return core.Role{}, fmt.Errorf("insert role: %w", err)
	}
	role.ID, err = res.LastInsertId()
	if err != nil {
		return core.Role{}, fmt.Errorf("role insert id: %w", err)
	}
	return role, nil
}

func (s *Store) UpdateRole(ctx context.Context, role core.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE roles SET name = ? WHERE id = ?`, role.Name, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role_id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("count role users: %w", err)
	}
	if n > 0 {
		return storage.ErrInUse
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return requireAffected(res)
}

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, account core.Account) (core.Account, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, balance_cents, currency, active) VALUES (?, ?, ?, ?, ?)`,
		account.UserID, account.Name, account.Balance.Cents, account.Currency, account.Active)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	account.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, balance_cents, currency, active FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents, &a.Currency, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID int64, page storage.Page) ([]core.Account, error) {
	page = page.Normalize()
	query := `SELECT id, user_id, name, balance_cents, currency, active FROM accounts`
	args := []any{}
	if userID != 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents, &a.Currency, &a.Active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, account core.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, balance_cents = ?, currency = ?, active = ? WHERE id = ?`,
		account.Name, account.Balance.Cents, account.Currency, account.Active, account.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(res)
}

// --- categories ---

const categoryColumns = "id, user_id, name, type, icon, color, created_at, updated_at"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, category core.Category) (core.Category, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, icon, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.UserID, category.Name, category.Type, category.Icon, category.Color, now, now)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	category.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	category.CreatedAt, category.UpdatedAt = now, now
	return category, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, userID int64, t core.CategoryType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?`
	args := []any{userID}
	if t != "" {
		query += ` AND type = ?`
		args = append(args, t)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, category core.Category) error {
	// Type is fixed at creation and deliberately absent from the SET list.
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		category.Name, category.Icon, category.Color, time.Now().UTC(), category.ID, category.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var refs int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`, userID, id).Scan(&refs); err != nil {
		return fmt.Errorf("count category transactions: %w", err)
	}
	if refs > 0 {
		return storage.ErrInUse
	}

	// Budgets hang off the category; remove them in the same transaction.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND category_id = ?`, userID, id); err != nil {
		return fmt.Errorf("delete category budgets: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// --- transactions ---

const transactionColumns = "id, user_id, category_id, amount_cents, description, tx_date, recurring, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount.Cents, &t.Description,
		&t.Date, &t.Recurring, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount_cents, description, tx_date, recurring, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.CategoryID, tx.Amount.Cents, tx.Description,
		core.DateOnly(tx.Date), tx.Recurring, now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	tx.CreatedAt, tx.UpdatedAt = now, now
	return tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, err
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, filter storage.TransactionFilter) ([]core.Transaction, error) {
	page := filter.Normalize()
	query := `SELECT t.` + strings.ReplaceAll(transactionColumns, ", ", ", t.") +
		` FROM transactions t JOIN categories c ON c.id = t.category_id WHERE t.user_id = ?`
	args := []any{userID}

	if filter.CategoryID != 0 {
		query += ` AND t.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.Type != "" {
		query += ` AND c.type = ?`
		args = append(args, filter.Type)
	}
	if filter.From != nil {
		query += ` AND t.tx_date >= ?`
		args = append(args, core.DateOnly(*filter.From))
	}
	if filter.To != nil {
		query += ` AND t.tx_date <= ?`
		args = append(args, core.DateOnly(*filter.To))
	}
	query += ` ORDER BY t.tx_date DESC, t.id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) ListCategoryTransactions(ctx context.Context, userID, categoryID int64) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND category_id = ? ORDER BY tx_date`,
		userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, amount_cents = ?, description = ?, tx_date = ?, recurring = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		tx.CategoryID, tx.Amount.Cents, tx.Description, core.DateOnly(tx.Date), tx.Recurring,
		time.Now().UTC(), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) MonthTotals(ctx context.Context, userID int64, year int, month time.Month) (core.Money, core.Money, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.type, COALESCE(SUM(t.amount_cents), 0)
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.tx_date >= ? AND t.tx_date < ?
		 GROUP BY c.type`,
		userID, first, next)
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("month totals: %w", err)
	}
	defer rows.Close()

	var income, expense core.Money
	for rows.Next() {
		var t core.CategoryType
		var sum int64
		if err := rows.Scan(&t, &sum); err != nil {
			return core.Money{}, core.Money{}, fmt.Errorf("scan month total: %w", err)
		}
		if t == core.CategoryIncome {
			income.Cents = sum
		} else {
			expense.Cents = sum
		}
	}
	return income, expense, rows.Err()
}

// --- budgets ---

const budgetColumns = "id, user_id, category_id, amount_cents, period, start_date, end_date, notify, created_at, updated_at"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	var end sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &b.Period,
		&b.StartDate, &end, &b.Notify, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	if end.Valid {
		t := end.Time
		b.EndDate = &t
	}
	return b, err
}

// CreateBudget performs the duplicate-active check and the insert in
// one immediate transaction (see dsn), closing the read-then-write race
// of concurrent submissions. The partial unique index on open-ended
// budgets backstops the check.
func (s *Store) CreateBudget(ctx context.Context, budget core.Budget, today time.Time) (core.Budget, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin create budget: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT end_date FROM budgets WHERE user_id = ? AND category_id = ?`,
		budget.UserID, budget.CategoryID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check active budgets: %w", err)
	}
	for rows.Next() {
		var end sql.NullTime
		if err := rows.Scan(&end); err != nil {
			rows.Close()
			return core.Budget{}, fmt.Errorf("scan budget end date: %w", err)
		}
		existing := core.Budget{}
		if end.Valid {
			t := end.Time
			existing.EndDate = &t
		}
		if existing.ActiveOn(today) {
			rows.Close()
			return core.Budget{}, storage.ErrDuplicateActiveBudget
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return core.Budget{}, fmt.Errorf("iterate budgets: %w", err)
	}

	now := time.Now().UTC()
	var end any
	if budget.EndDate != nil {
		end = core.DateOnly(*budget.EndDate)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, period, start_date, end_date, notify, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.UserID, budget.CategoryID, budget.Amount.Cents, budget.Period,
		core.DateOnly(budget.StartDate), end, budget.Notify, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, storage.ErrDuplicateActiveBudget
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	budget.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit create budget: %w", err)
	}
	budget.CreatedAt, budget.UpdatedAt = now, now
	return budget, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (s *Store) ListNotifyBudgets(ctx context.Context, userID, categoryID int64) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE notify = 1`
	args := []any{}
	if userID != 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notify budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, budget core.Budget) error {
	var end any
	if budget.EndDate != nil {
		end = core.DateOnly(*budget.EndDate)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?, period = ?, start_date = ?, end_date = ?, notify = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		budget.Amount.Cents, budget.Period, core.DateOnly(budget.StartDate), end, budget.Notify,
		time.Now().UTC(), budget.ID, budget.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateActiveBudget
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireAffected(res)
}

// --- budget alerts ---

func (s *Store) InsertAlert(ctx context.Context, alert storage.Alert) (storage.Alert, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_alerts (budget_id, user_id, level, percent_used, spent_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		alert.BudgetID, alert.UserID, alert.Level, alert.PercentUsed, alert.Spent.Cents, now)
	if err != nil {
		return storage.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	alert.ID, err = res.LastInsertId()
	if err != nil {
		return storage.Alert{}, fmt.Errorf("alert insert id: %w", err)
	}
	alert.CreatedAt = now
	return alert, nil
}

func (s *Store) HasAlertOn(ctx context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error) {
	start := core.DateOnly(day)
	end := start.AddDate(0, 0, 1)
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_alerts
		 WHERE budget_id = ? AND level = ? AND created_at >= ? AND created_at < ?`,
		budgetID, level, start, end).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check alert: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListAlerts(ctx context.Context, userID int64, limit int) ([]storage.Alert, error) {
	if limit <= 0 {
		limit = core.DashboardAlertLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, user_id, level, percent_used, spent_cents, created_at
		 FROM budget_alerts WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []storage.Alert
	for rows.Next() {
		var a storage.Alert
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.UserID, &a.Level, &a.PercentUsed, &a.Spent.Cents, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
