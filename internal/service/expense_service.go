package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"expense-api/internal/domain"
	"expense-api/internal/repository"
)

var (
	// ErrNotOwner covers both a missing expense and one owned by someone
	// else; callers learn nothing about existence from the failure.
	ErrNotOwner = errors.New("you are not the owner of this expense")
	// ErrInvalidCategory is returned when a category is not in the set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidDate is returned when a custom filter cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrDeleteFailed surfaces a delete that matched nothing after the
	// ownership check had passed.
	ErrDeleteFailed = errors.New("there was an error trying to delete the expense, please try again")
)

// ExpenseUpdate is an inbound partial update. The same meaningful-field
// rule as UserUpdate applies: empty strings count as absent.
type ExpenseUpdate struct {
	Title    *string
	Amount   *float64
	Category *string
}

// ExpenseService coordinates ownership-gated expense operations.
type ExpenseService interface {
	Create(ctx context.Context, identity domain.Identity, title string, amount float64, category string) (*domain.Expense, error)
	List(ctx context.Context, identity domain.Identity, filter string) ([]domain.Expense, error)
	Get(ctx context.Context, id int64, identity domain.Identity) (*domain.Expense, error)
	Update(ctx context.Context, id int64, identity domain.Identity, update ExpenseUpdate) error
	Delete(ctx context.Context, id int64, identity domain.Identity) error
}

type expenseService struct {
	expenses   repository.ExpenseRepository
	categories domain.CategorySet
}

func NewExpenseService(expenses repository.ExpenseRepository, categories domain.CategorySet) ExpenseService {
	return &expenseService{
		expenses:   expenses,
		categories: categories,
	}
}

func (s *expenseService) Create(ctx context.Context, identity domain.Identity, title string, amount float64, category string) (*domain.Expense, error) {
	canonical, ok := s.categories.Canonical(category)
	if !ok {
		return nil, s.invalidCategory()
	}

	expense := &domain.Expense{
		Title:    title,
		Amount:   amount,
		Category: canonical,
		UserID:   identity.Subject,
	}

	if _, err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) List(ctx context.Context, identity domain.Identity, filter string) ([]domain.Expense, error) {
	if filter == "" {
		return s.expenses.ListByUser(ctx, identity.Subject)
	}

	cutoff, err := filterCutoff(filter, time.Now())
	if err != nil {
		return nil, err
	}
	return s.expenses.ListByUserSince(ctx, identity.Subject, cutoff)
}

func (s *expenseService) Get(ctx context.Context, id int64, identity domain.Identity) (*domain.Expense, error) {
	return s.owned(ctx, id, identity)
}

func (s *expenseService) Update(ctx context.Context, id int64, identity domain.Identity, update ExpenseUpdate) error {
	patch := repository.ExpensePatch{
		Title:  meaningful(update.Title),
		Amount: update.Amount,
	}
	if category := meaningful(update.Category); category != nil {
		canonical, ok := s.categories.Canonical(*category)
		if !ok {
			return s.invalidCategory()
		}
		patch.Category = &canonical
	}
	if patch.IsEmpty() {
		return ErrNoUpdateFields
	}

	if _, err := s.owned(ctx, id, identity); err != nil {
		return err
	}

	// the statement re-checks ownership; a row deleted between the read
	// and the write simply affects nothing
	if _, err := s.expenses.Update(ctx, id, identity.Subject, patch); err != nil {
		return err
	}
	return nil
}

func (s *expenseService) Delete(ctx context.Context, id int64, identity domain.Identity) error {
	if _, err := s.owned(ctx, id, identity); err != nil {
		return err
	}

	affected, err := s.expenses.Delete(ctx, id, identity.Subject)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeleteFailed
	}
	return nil
}

// owned is the single ownership gate: a missing expense and a foreign
// one fail identically with ErrNotOwner.
func (s *expenseService) owned(ctx context.Context, id int64, identity domain.Identity) (*domain.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotOwner
		}
		return nil, err
	}
	if expense.UserID != identity.Subject {
		return nil, ErrNotOwner
	}
	return expense, nil
}

func (s *expenseService) invalidCategory() error {
	names := s.categories.Names()
	sort.Strings(names)
	return fmt.Errorf("%w: the category should be one of: %s", ErrInvalidCategory, strings.Join(names, ", "))
}

// filterCutoff resolves a list filter to the earliest created_at to
// include. Relative filters are truncated to the start of the day;
// anything else is parsed as an absolute date.
func filterCutoff(filter string, now time.Time) (time.Time, error) {
	switch filter {
	case "week":
		return startOfDay(now.AddDate(0, 0, -7)), nil
	case "month":
		return startOfDay(now.AddDate(0, -1, 0)), nil
	case "three_months":
		return startOfDay(now.AddDate(0, -3, 0)), nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, filter); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
