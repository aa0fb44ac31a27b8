package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomrelay/relay/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, ":3005", cfg.Addr)
	assert.Equal(t, "relay.db", cfg.DBPath)
	assert.Equal(t, "web/static", cfg.StaticDir)
	assert.Equal(t, 2*time.Minute, cfg.RecoveryWindow)
}

func TestNew_ReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("ADDR", ":8080")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("RECOVERY_WINDOW", "30s")

	cfg, err := config.New()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.RecoveryWindow)
}

func TestNew_RejectsMalformedRecoveryWindow(t *testing.T) {
	t.Setenv("RECOVERY_WINDOW", "not-a-duration")

	_, err := config.New()
	assert.Error(t, err)
}
