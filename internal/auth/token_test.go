package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"expense-api/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:       42,
		Username: "a",
		Email:    "a@x.com",
	}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	token, err := m.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), identity.Subject)
	require.Equal(t, "a", identity.Username)
	require.Equal(t, "a@x.com", identity.Email)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	token, err := m.IssueWithTTL(testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewManager([]byte("right-secret"), time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewManager([]byte("wrong-secret"), time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	for _, token := range []string{"", "garbage", "not.a.jwt"} {
		_, err := m.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager([]byte("test-secret"), 0)
	require.Equal(t, DefaultTTL, m.TTL())
}
