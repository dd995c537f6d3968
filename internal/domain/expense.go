package domain

import "time"

// Expense is a single spending record owned by exactly one user.
// UserID is set at creation and never changes.
type Expense struct {
	ID        int64
	Title     string
	Amount    float64
	Category  string
	CreatedAt time.Time
	UserID    int64
}
