package repository

import (
	"context"
	"time"

	"expense-api/internal/domain"
)

// ExpensePatch carries a partial update. Nil fields are left untouched.
type ExpensePatch struct {
	Title    *string
	Amount   *float64
	Category *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil
}

// ExpenseRepository defines persistence operations for Expense
// entities. Update and Delete are owner-scoped: they affect a row only
// when both id and userID match, and report the affected count.
type ExpenseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, expense *domain.Expense) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error)
	ListByUserSince(ctx context.Context, userID int64, since time.Time) ([]domain.Expense, error)
	Update(ctx context.Context, id, userID int64, patch ExpensePatch) (int64, error)
	Delete(ctx context.Context, id, userID int64) (int64, error)
}
