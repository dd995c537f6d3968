package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"expense-api/internal/domain"
	"expense-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotSelf is returned when a caller mutates an account other than their own.
	ErrNotSelf = errors.New("cannot modify another user")
	// ErrNoUpdateFields is returned when an update patch carries no meaningful field.
	ErrNoUpdateFields = errors.New("at least one field must be provided")
)

// UserUpdate is an inbound partial update. A field counts only when it
// is present and non-empty; empty strings never overwrite stored data.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id int64, identity domain.Identity, update UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64, identity domain.Identity) error
}

type userService struct {
	users    repository.UserRepository
	expenses repository.ExpenseRepository
}

func NewUserService(users repository.UserRepository, expenses repository.ExpenseRepository) UserService {
	return &userService{
		users:    users,
		expenses: expenses,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, errors.New("username is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	expenses, err := s.expenses.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Expenses = expenses

	return user, nil
}

func (s *userService) Update(ctx context.Context, id int64, identity domain.Identity, update UserUpdate) (*domain.User, error) {
	if identity.Subject != id {
		return nil, ErrNotSelf
	}

	patch := repository.UserPatch{
		Username: meaningful(update.Username),
		Email:    meaningful(update.Email),
	}
	password := meaningful(update.Password)
	if patch.IsEmpty() && password == nil {
		return nil, ErrNoUpdateFields
	}

	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hashed := string(hash)
		patch.PasswordHash = &hashed
	}

	if _, err := s.users.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id int64, identity domain.Identity) error {
	if identity.Subject != id {
		return ErrNotSelf
	}

	affected, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// meaningful filters an inbound optional string: nil and empty values
// are both treated as absent.
func meaningful(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
