package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash-lite", cfg.DefaultModel)
	assert.InDelta(t, 0.9, cfg.Temperature, 1e-9)
	assert.Equal(t, 8192, cfg.MaxOutputTokens)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "nemesis", cfg.ConfirmKeyword)
	assert.NotEmpty(t, cfg.SystemPrompt)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "key")

	_, err := Load()
	assert.Error(t, err)
}

func TestAdminIDs(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("ADMIN_USER_IDS", "123, 456,oops,789")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{123, 456, 789}, cfg.AdminIDs())
	assert.True(t, cfg.IsAdmin(456))
	assert.False(t, cfg.IsAdmin(999))
}
