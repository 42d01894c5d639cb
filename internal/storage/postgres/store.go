// Package postgres implements storage.Store on PostgreSQL via pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`INSERT INTO roles (id, name) VALUES (1, 'admin'), (2, 'user') ON CONFLICT (id) DO NOTHING;`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role_id BIGINT NOT NULL DEFAULT 2 REFERENCES roles (id),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			balance_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'PYG',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			balance_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'PYG',
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
			icon TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			category_id BIGINT NOT NULL REFERENCES categories (id),
			amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
			description TEXT NOT NULL,
			tx_date DATE NOT NULL,
			recurring BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_category_date ON transactions (user_id, category_id, tx_date);`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			category_id BIGINT NOT NULL REFERENCES categories (id),
			amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
			period TEXT NOT NULL CHECK (period IN ('daily', 'weekly', 'monthly', 'quarterly', 'semiannual', 'annual')),
			start_date DATE NOT NULL,
			end_date DATE,
			notify BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_budgets_open_ended ON budgets (user_id, category_id) WHERE end_date IS NULL;`,
		`CREATE TABLE IF NOT EXISTS budget_alerts (
			id BIGSERIAL PRIMARY KEY,
			budget_id BIGINT NOT NULL REFERENCES budgets (id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			level TEXT NOT NULL CHECK (level IN ('near_limit', 'exceeded')),
			percent_used DOUBLE PRECISION NOT NULL,
			spent_cents BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_budget_alerts_user ON budget_alerts (user_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- users ---

const userColumns = "id, username, email, password_hash, role_id, active, balance_cents, currency, created_at, updated_at"

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.Active,
		&u.Balance.Cents, &u.Currency, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user core.User) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role_id, active, balance_cents, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		user.Username, user.Email, user.PasswordHash, user.RoleID, user.Active,
		user.Balance.Cents, user.Currency)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, storage.ErrAlreadyExists
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]core.User, error) {
	page = page.Normalize()
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET username = $1, email = $2, password_hash = $3, role_id = $4, active = $5,
		        balance_cents = $6, currency = $7, updated_at = NOW()
		 WHERE id = $8`,
		user.Username, user.Email, user.PasswordHash, user.RoleID, user.Active,
		user.Balance.Cents, user.Currency, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(tag)
}

// --- roles ---

func (s *Store) ListRoles(ctx context.Context) ([]core.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
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
	err := s.pool.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, role.Name).Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Role{}, storage.ErrAlreadyExists
		}
		return core.Role{}, fmt.Errorf("insert role: %w", err)
	}
	return role, nil
}

func (s *Store) UpdateRole(ctx context.Context, role core.Role) error {
	tag, err := s.pool.Exec(ctx, `UPDATE roles SET name = $1 WHERE id = $2`, role.Name, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&n); err != nil {
		return fmt.Errorf("count role users: %w", err)
	}
	if n > 0 {
		return storage.ErrInUse
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return requireAffected(tag)
}

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, account core.Account) (core.Account, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (user_id, name, balance_cents, currency, active)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		account.UserID, account.Name, account.Balance.Cents, account.Currency, account.Active).
		Scan(&account.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, balance_cents, currency, active FROM accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents, &a.Currency, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
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
		query += ` WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3`
		args = append(args, userID, page.Limit, page.Offset)
	} else {
		query += ` ORDER BY id LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, page.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET name = $1, balance_cents = $2, currency = $3, active = $4 WHERE id = $5`,
		account.Name, account.Balance.Cents, account.Currency, account.Active, account.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(tag)
}

// --- categories ---

const categoryColumns = "id, user_id, name, type, icon, color, created_at, updated_at"

func scanCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, category core.Category) (core.Category, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, name, type, icon, color)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+categoryColumns,
		category.UserID, category.Name, category.Type, category.Icon, category.Color)
	created, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, userID int64, t core.CategoryType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1`
	args := []any{userID}
	if t != "" {
		query += ` AND type = $2`
		args = append(args, t)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET name = $1, icon = $2, color = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5`,
		category.Name, category.Icon, category.Color, category.ID, category.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback(ctx)

	var refs int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND category_id = $2`, userID, id).Scan(&refs); err != nil {
		return fmt.Errorf("count category transactions: %w", err)
	}
	if refs > 0 {
		return storage.ErrInUse
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM budgets WHERE user_id = $1 AND category_id = $2`, userID, id); err != nil {
		return fmt.Errorf("delete category budgets: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(tag); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- transactions ---

const transactionColumns = "id, user_id, category_id, amount_cents, description, tx_date, recurring, created_at, updated_at"

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount.Cents, &t.Description,
		&t.Date, &t.Recurring, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, category_id, amount_cents, description, tx_date, recurring)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+transactionColumns,
		tx.UserID, tx.CategoryID, tx.Amount.Cents, tx.Description, core.DateOnly(tx.Date), tx.Recurring)
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, err
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, filter storage.TransactionFilter) ([]core.Transaction, error) {
	page := filter.Normalize()
	query := `SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.description, t.tx_date, t.recurring, t.created_at, t.updated_at
		 FROM transactions t JOIN categories c ON c.id = t.category_id WHERE t.user_id = $1`
	args := []any{userID}

	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(` AND t.category_id = $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(` AND c.type = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, core.DateOnly(*filter.From))
		query += fmt.Sprintf(` AND t.tx_date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, core.DateOnly(*filter.To))
		query += fmt.Sprintf(` AND t.tx_date <= $%d`, len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(` ORDER BY t.tx_date DESC, t.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
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
	rows, err := s.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND category_id = $2 ORDER BY tx_date`,
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET category_id = $1, amount_cents = $2, description = $3, tx_date = $4, recurring = $5, updated_at = NOW()
		 WHERE id = $6 AND user_id = $7`,
		tx.CategoryID, tx.Amount.Cents, tx.Description, core.DateOnly(tx.Date), tx.Recurring, tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) MonthTotals(ctx context.Context, userID int64, year int, month time.Month) (core.Money, core.Money, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := s.pool.Query(ctx,
		`SELECT c.type, COALESCE(SUM(t.amount_cents), 0)
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1 AND t.tx_date >= $2 AND t.tx_date < $3
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

func scanBudget(row pgx.Row) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &b.Period,
		&b.StartDate, &b.EndDate, &b.Notify, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, err
}

// CreateBudget locks the pair's budget rows while checking for an
// active duplicate, then inserts. The partial unique index on
// open-ended budgets backstops concurrent inserts.
func (s *Store) CreateBudget(ctx context.Context, budget core.Budget, today time.Time) (core.Budget, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin create budget: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND category_id = $2 AND (end_date IS NULL OR end_date >= $3)
			FOR UPDATE
		)`,
		budget.UserID, budget.CategoryID, core.DateOnly(today)).Scan(&exists)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check active budgets: %w", err)
	}
	if exists {
		return core.Budget{}, storage.ErrDuplicateActiveBudget
	}

	var end any
	if budget.EndDate != nil {
		end = core.DateOnly(*budget.EndDate)
	}
	row := tx.QueryRow(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, period, start_date, end_date, notify)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+budgetColumns,
		budget.UserID, budget.CategoryID, budget.Amount.Cents, budget.Period,
		core.DateOnly(budget.StartDate), end, budget.Notify)
	created, err := scanBudget(row)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, storage.ErrDuplicateActiveBudget
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Budget{}, fmt.Errorf("commit create budget: %w", err)
	}
	return created, nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (s *Store) ListNotifyBudgets(ctx context.Context, userID, categoryID int64) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE notify = TRUE`
	args := []any{}
	if userID != 0 {
		args = append(args, userID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if categoryID != 0 {
		args = append(args, categoryID)
		query += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notify budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func collectBudgets(rows pgx.Rows) ([]core.Budget, error) {
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
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets SET amount_cents = $1, period = $2, start_date = $3, end_date = $4, notify = $5, updated_at = NOW()
		 WHERE id = $6 AND user_id = $7`,
		budget.Amount.Cents, budget.Period, core.DateOnly(budget.StartDate), end, budget.Notify,
		budget.ID, budget.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateActiveBudget
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireAffected(tag)
}

// --- budget alerts ---

func (s *Store) InsertAlert(ctx context.Context, alert storage.Alert) (storage.Alert, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO budget_alerts (budget_id, user_id, level, percent_used, spent_cents)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		alert.BudgetID, alert.UserID, alert.Level, alert.PercentUsed, alert.Spent.Cents).
		Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return storage.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}

func (s *Store) HasAlertOn(ctx context.Context, budgetID int64, level core.BudgetStatus, day time.Time) (bool, error) {
	start := core.DateOnly(day)
	end := start.AddDate(0, 0, 1)
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM budget_alerts
			WHERE budget_id = $1 AND level = $2 AND created_at >= $3 AND created_at < $4
		)`,
		budgetID, level, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check alert: %w", err)
	}
	return exists, nil
}

func (s *Store) ListAlerts(ctx context.Context, userID int64, limit int) ([]storage.Alert, error) {
	if limit <= 0 {
		limit = core.DashboardAlertLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, budget_id, user_id, level, percent_used, spent_cents, created_at
		 FROM budget_alerts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
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

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
