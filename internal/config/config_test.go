package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	require.Equal(t, "data/expenses.db", cfg.Database.Path)
	require.Equal(t, 12, cfg.Auth.TokenTTLHours)
	require.Equal(t, "expense-exports", cfg.Storage.KeyPrefix)
	require.Empty(t, cfg.Auth.JWTSecret)
	require.Empty(t, cfg.Storage.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXPENSE_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("EXPENSE_AUTH_JWTSECRET", "shh")
	t.Setenv("EXPENSE_AUTH_TOKENTTLHOURS", "24")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.Equal(t, "shh", cfg.Auth.JWTSecret)
	require.Equal(t, 24, cfg.Auth.TokenTTLHours)
}
