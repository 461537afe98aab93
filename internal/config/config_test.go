package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "golfscout.db", cfg.Store.SQLitePath)
	assert.Equal(t, "ja", cfg.Places.LanguageCode)
	assert.Equal(t, "JP", cfg.Places.RegionCode)

	assert.Len(t, cfg.Collect.Centers, 7, "Kanto capitals by default")
	assert.Equal(t, "東京都", cfg.Collect.Centers[0].Region)
	assert.Contains(t, cfg.Collect.Keywords, "ゴルフ練習場")
	assert.InDelta(t, 20000, cfg.Collect.RadiusMeters, 0.1)
	assert.InDelta(t, 50000, cfg.Collect.RelaxedRadiusMeters, 0.1)
	assert.Equal(t, 20, cfg.Collect.PageSize)
	assert.Equal(t, 10, cfg.Collect.RelaxedPageSize)
	assert.Equal(t, "golf_course", cfg.Collect.IncludedType)
	assert.Equal(t, 60, cfg.Collect.SearchBatchSize)
	assert.Equal(t, 40, cfg.Collect.DetailsBatchSize)
	assert.Equal(t, 2*time.Second, cfg.Collect.PageTokenDelay)
	assert.Equal(t, time.Minute, cfg.Collect.ContinueDelay)
	assert.Len(t, cfg.Collect.AllowedRegions, 7)

	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("GOLFSCOUT_STORE_DRIVER", "postgres")
	t.Setenv("GOLFSCOUT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	isolateConfig(t)
	yaml := `
collect:
  keywords:
    - インドアゴルフ
  centers:
    - name: 大阪
      lat: 34.6937
      lng: 135.5023
      region: 大阪府
  allowed_regions:
    - 大阪府
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"インドアゴルフ"}, cfg.Collect.Keywords)
	require.Len(t, cfg.Collect.Centers, 1)
	assert.Equal(t, "大阪", cfg.Collect.Centers[0].Name)
	assert.InDelta(t, 34.6937, cfg.Collect.Centers[0].Lat, 0.0001)
	assert.Equal(t, []string{"大阪府"}, cfg.Collect.AllowedRegions)
}

func TestLoadBadConfigFile(t *testing.T) {
	isolateConfig(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("{not yaml"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadHomeConfigDir(t *testing.T) {
	isolateConfig(t)
	home := os.Getenv("HOME")
	confDir := filepath.Join(home, ".config", "golfscout")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	yaml := "store:\n  sqlite_path: /var/lib/golfscout/data.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/golfscout/data.db", cfg.Store.SQLitePath)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInitLoggerConsoleFormat(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
