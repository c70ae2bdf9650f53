package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coin-tracker/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	require.Equal(t, "data", cfg.Database.Dir)
	require.Equal(t, "coin_session", cfg.Session.CookieName)
	require.Equal(t, 1440, cfg.Session.TTLMinutes)
	require.Equal(t, "coin-snapshots", cfg.Storage.KeyPrefix)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("COINS_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("COINS_SUPERADMIN_EMAIL", "root@x.com")
	t.Setenv("COINS_SESSION_TTLMINUTES", "60")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.Equal(t, "root@x.com", cfg.Superadmin.Email)
	require.Equal(t, 60, cfg.Session.TTLMinutes)
}
