package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-api/internal/domain"
	"expense-api/internal/repository"
)

const createExpensesTable = `
CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	amount REAL NOT NULL,
	category TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
`

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) repository.ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createExpensesTable); err != nil {
		return fmt.Errorf("create expenses table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_created ON expenses (user_id, created_at)`,
	); err != nil {
		return fmt.Errorf("create expenses index: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (int64, error) {
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (title, amount, category, created_at, user_id)
VALUES (?, ?, ?, ?, ?)`,
		expense.Title,
		expense.Amount,
		expense.Category,
		expense.CreatedAt,
		expense.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense last insert id: %w", err)
	}
	expense.ID = id
	return id, nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, amount, category, created_at, user_id
FROM expenses
WHERE id = ?`,
		id,
	)
	return scanExpense(row)
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, amount, category, created_at, user_id
FROM expenses
WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (r *ExpenseRepository) ListByUserSince(ctx context.Context, userID int64, since time.Time) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, amount, category, created_at, user_id
FROM expenses
WHERE user_id = ? AND created_at >= ?`,
		userID,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses since: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// Update touches a row only when both id and userID match, so the
// ownership condition and the mutation are a single statement.
func (r *ExpenseRepository) Update(ctx context.Context, id, userID int64, patch repository.ExpensePatch) (int64, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE expenses SET %s WHERE id = ? AND user_id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expense rows affected: %w", err)
	}
	return affected, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expense rows affected: %w", err)
	}
	return affected, nil
}

func scanExpense(row interface {
	Scan(dest ...any) error
}) (*domain.Expense, error) {
	var expense domain.Expense
	if err := row.Scan(
		&expense.ID,
		&expense.Title,
		&expense.Amount,
		&expense.Category,
		&expense.CreatedAt,
		&expense.UserID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	return &expense, nil
}

func collectExpenses(rows *sql.Rows) ([]domain.Expense, error) {
	var expenses []domain.Expense
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(
			&expense.ID,
			&expense.Title,
			&expense.Amount,
			&expense.Category,
			&expense.CreatedAt,
			&expense.UserID,
		); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}
