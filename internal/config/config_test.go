package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
app:
  env: prod
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, defaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, defaultIBKRTimeout, cfg.IBKR.TimeoutSeconds)
	assert.Equal(t, defaultBreakerThreshold, cfg.IBKR.BreakerThreshold)
	assert.Equal(t, defaultSyncParallelism, cfg.Sync.Parallelism)
	assert.Equal(t, defaultExecLookbackDays, cfg.Sync.ExecutionLookbackDays)
	assert.Equal(t, defaultEngineInterval, cfg.Engine.IntervalSeconds)
	assert.Equal(t, defaultMaxRecs, cfg.Engine.Safety.MaxRecommendations)
	assert.Equal(t, defaultMaxPerPlan, cfg.Engine.Safety.MaxPerPlan)
}

func TestLoadExplicitValueSurvivesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
ibkr:
  insecure_skip_verify: false
sync:
  parallelism: 1
engine:
  safety:
    max_total_notional: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.IBKR.InsecureSkipVerify)
	assert.Equal(t, 1, cfg.Sync.Parallelism)
	// Explicit zero stays zero even though a positive default exists.
	assert.Equal(t, float64(0), cfg.Engine.Safety.MaxTotalNotional)
}

func TestLoadIncludesLaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
app:
  log_level: debug
database:
  path: /tmp/base.db
`)
	main := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
database:
  path: /tmp/override.db
`)
	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoadIncludeCycleFails(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")
	_, err := Load(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestLoadNormalizesAccountKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
sync:
  account_kinds: [" ibkr ", "sim"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"IBKR", "SIM"}, cfg.Sync.AccountKinds)
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()

	badLevel := writeConfig(t, dir, "level.yaml", "app:\n  log_level: shout\n")
	_, err := Load(badLevel)
	require.ErrorContains(t, err, "app.log_level")

	badKind := writeConfig(t, dir, "kind.yaml", "sync:\n  account_kinds: [ROBINHOOD]\n")
	_, err = Load(badKind)
	require.ErrorContains(t, err, "unknown kind")

	badSafety := writeConfig(t, dir, "safety.yaml", `
engine:
  safety:
    max_recommendations: 5
    max_per_plan: 9
`)
	_, err = Load(badSafety)
	require.ErrorContains(t, err, "max_per_plan")
}
