package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomofocus/backend/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POMOFOCUS_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TICK_INTERVAL_MS", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("AI_MODEL", "")
	t.Setenv("TIMER_AUTO_ADVANCE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, model.DefaultSessionConfig(), cfg.Timer)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestLoadTOMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomofocus.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[timer]
work_minutes = 50
short_break_minutes = 10
auto_advance = true
break_sound = "gong"

[ai]
model = "file-model"
rate_per_minute = 2
`), 0o644))

	t.Setenv("POMOFOCUS_CONFIG", path)
	t.Setenv("AI_MODEL", "env-model")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMER_AUTO_ADVANCE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Timer.WorkMinutes)
	assert.Equal(t, 10, cfg.Timer.ShortBreakMinutes)
	assert.Equal(t, model.DefaultLongBreakMinutes, cfg.Timer.LongBreakMinutes)
	assert.True(t, cfg.Timer.AutoAdvance)
	assert.Equal(t, model.SoundGong, cfg.Timer.BreakSound)
	assert.Equal(t, model.DefaultWorkSound, cfg.Timer.WorkSound)
	assert.Equal(t, "env-model", cfg.AI.Model)
	assert.Equal(t, 2, cfg.AI.RatePerMinute)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadYAMLFileClampsTimer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomofocus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer:\n  work_minutes: 0\n  long_break_interval: 2\n"), 0o644))

	t.Setenv("POMOFOCUS_CONFIG", path)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TIMER_AUTO_ADVANCE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Timer.WorkMinutes)
	assert.Equal(t, 2, cfg.Timer.LongBreakInterval)
	assert.True(t, cfg.Timer.AutoAdvance)
}

func TestLoadRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomofocus.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	t.Setenv("POMOFOCUS_CONFIG", path)
	_, err := Load()
	assert.ErrorContains(t, err, "unsupported extension")

	t.Setenv("POMOFOCUS_CONFIG", "")
	t.Setenv("LOG_LEVEL", "loud")
	_, err = Load()
	assert.ErrorContains(t, err, "LOG_LEVEL")
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("POMOFOCUS_DOTENV_PROBE=loaded\n"), 0o644))
	t.Setenv("POMOFOCUS_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("POMOFOCUS_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("POMOFOCUS_DOTENV_PROBE"))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("POMOFOCUS_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, getEnvList("POMOFOCUS_LIST", nil))

	t.Setenv("POMOFOCUS_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvList("POMOFOCUS_LIST", []string{"x"}))
}
