package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "GEMINI_API_KEY", "API_KEY", "LOG_LEVEL", "DEBUG", "PREFER_IPV4",
	"VARIANT_COUNT", "VARIANT_TIMEOUT_SECONDS", "MAX_CONCURRENT", "FREE_DAILY_LIMIT",
	"STUDIO_TUNING_FILE", "AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY", "WEB_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.PreferIPv4)
	assert.Equal(t, 4, cfg.VariantCount)
	assert.Equal(t, 60*time.Second, cfg.VariantTimeout)
	assert.Equal(t, 2, cfg.FreeDailyLimit)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, 20, cfg.Palette.QuantStep)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.AzureEnabled())
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", " tok ")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("VARIANT_COUNT", "99")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("DEBUG", "true")
	t.Setenv("FREE_DAILY_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.TelegramToken)
	assert.NoError(t, cfg.RequireTelegram())
	assert.Equal(t, "legacy-key", cfg.GeminiAPIKey)
	assert.Equal(t, 8, cfg.VariantCount)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 2, cfg.FreeDailyLimit)

	t.Setenv("GEMINI_API_KEY", "primary")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.GeminiAPIKey)
}

func TestLoad_TuningFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
palette:
  quant_step: 16
  min_distance: 45.5
generation:
  variants: 2
  variant_timeout_seconds: 15
`), 0o600))
	t.Setenv("STUDIO_TUNING_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Palette.QuantStep)
	assert.Equal(t, 45.5, cfg.Palette.MinDistance)
	assert.Equal(t, 150, cfg.Palette.SampleSize)
	assert.Equal(t, 2, cfg.VariantCount)
	assert.Equal(t, 15*time.Second, cfg.VariantTimeout)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("STUDIO_TUNING_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("palette: [1, 2"), 0o600))
		t.Setenv("STUDIO_TUNING_FILE", bad)
		_, err := Load()
		assert.Error(t, err)
	})
}
