package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// service layer; response shapes live in the http package.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Expenses     []Expense
}
