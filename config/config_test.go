package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8099", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Limits.DailyMessages)
	assert.EqualValues(t, 1000, cfg.Points.UnlockCost)
	assert.Equal(t, 3, cfg.Generation.MaxRetries)
	assert.Equal(t, time.Second, cfg.Generation.RetryDelay)
	assert.Equal(t, "stub", cfg.Payment.Provider)
	require.Len(t, cfg.Payment.Packages, 3)

	pkg, ok := cfg.Payment.Package("p3000")
	require.True(t, ok)
	assert.EqualValues(t, 3000, pkg.Points)
	_, ok = cfg.Payment.Package("nope")
	assert.False(t, ok)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := []byte("limits:\n  dailymessages: 5\n  timezone: UTC\npoints:\n  unlockcost: 800\n")
	require.NoError(t, os.WriteFile("config.yaml", yaml, 0o600))
	t.Setenv("FORTUNA_POINTS_UNLOCKCOST", "1200")
	t.Setenv("FORTUNA_GENERATION_APIKEY", "key-123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Limits.DailyMessages)
	assert.EqualValues(t, 1200, cfg.Points.UnlockCost)
	assert.Equal(t, "key-123", cfg.Generation.APIKey)
	assert.Equal(t, "UTC", cfg.Limits.Location().String())
}

func TestLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, LimitsConfig{}.Location())
	assert.Equal(t, time.Local, LimitsConfig{Timezone: "Not/AZone"}.Location())
}
