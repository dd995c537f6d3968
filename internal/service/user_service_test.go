package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expense-api/internal/domain"
	"expense-api/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]domain.User{}}
}

func (r *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, fmt.Errorf("user %s: %w", user.Email, repository.ErrDuplicate)
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	user := u
	return &user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id int64, patch repository.UserPatch) (int64, error) {
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	if patch.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *patch.Email {
				return 0, fmt.Errorf("user update: %w", repository.ErrDuplicate)
			}
		}
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	r.users[id] = u
	return 1, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newUserService(t *testing.T) (UserService, *fakeUserRepo, *fakeExpenseRepo) {
	t.Helper()
	users := newFakeUserRepo()
	expenses := newFakeExpenseRepo()
	return NewUserService(users, expenses), users, expenses
}

func str(v string) *string { return &v }

func TestRegister_HashesPassword(t *testing.T) {
	svc, repo, _ := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	stored := repo.users[user.ID]
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "b", "a@x.com", "secret2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "a", user.Username)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@x.com", "secret1")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetByEmail_LoadsExpenses(t *testing.T) {
	svc, _, expenses := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = expenses.Create(context.Background(), &domain.Expense{
		Title:    "Milk",
		Amount:   3.5,
		Category: "Groceries",
		UserID:   user.ID,
	})
	require.NoError(t, err)

	found, err := svc.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Len(t, found.Expenses, 1)
	require.Equal(t, "Milk", found.Expenses[0].Title)
}

func TestGetByEmail_NotFound(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.GetByEmail(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdate_RejectsOtherUser(t *testing.T) {
	svc, _, _ := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), user.ID, domain.Identity{Subject: user.ID + 1}, UserUpdate{
		Username: str("b"),
	})
	require.ErrorIs(t, err, ErrNotSelf)
}

func TestUpdate_EmptyPatch(t *testing.T) {
	svc, repo, _ := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)
	before := repo.users[user.ID]

	identity := domain.Identity{Subject: user.ID}

	_, err = svc.Update(context.Background(), user.ID, identity, UserUpdate{})
	require.ErrorIs(t, err, ErrNoUpdateFields)

	// empty strings count as absent too
	_, err = svc.Update(context.Background(), user.ID, identity, UserUpdate{
		Username: str(""),
		Email:    str(""),
		Password: str(""),
	})
	require.ErrorIs(t, err, ErrNoUpdateFields)
	require.Equal(t, before, repo.users[user.ID])
}

func TestUpdate_RehashesPassword(t *testing.T) {
	svc, repo, _ := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)
	oldHash := repo.users[user.ID].PasswordHash

	updated, err := svc.Update(context.Background(), user.ID, domain.Identity{Subject: user.ID}, UserUpdate{
		Password: str("secret2"),
	})
	require.NoError(t, err)

	newHash := repo.users[user.ID].PasswordHash
	require.NotEqual(t, oldHash, newHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("secret2")))
	require.Equal(t, user.ID, updated.ID)
}

func TestUpdate_UnknownUser(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Update(context.Background(), 99, domain.Identity{Subject: 99}, UserUpdate{
		Username: str("b"),
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete_SelfOnly(t *testing.T) {
	svc, repo, _ := newUserService(t)

	user, err := svc.Register(context.Background(), "a", "a@x.com", "secret1")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), user.ID, domain.Identity{Subject: user.ID + 1})
	require.ErrorIs(t, err, ErrNotSelf)
	require.Contains(t, repo.users, user.ID)

	err = svc.Delete(context.Background(), user.ID, domain.Identity{Subject: user.ID})
	require.NoError(t, err)
	require.NotContains(t, repo.users, user.ID)
}

func TestDelete_UnknownUser(t *testing.T) {
	svc, _, _ := newUserService(t)

	err := svc.Delete(context.Background(), 99, domain.Identity{Subject: 99})
	require.ErrorIs(t, err, ErrUserNotFound)
}
