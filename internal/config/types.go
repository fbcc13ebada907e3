package config

import "strings"

// Config is the root configuration object.
type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	IBKR     IBKRConfig     `toml:"ibkr"`
	Sync     SyncConfig     `toml:"sync"`
	Engine   EngineConfig   `toml:"engine"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// IBKRConfig describes the gateway endpoint used by ingestion.
type IBKRConfig struct {
	BaseURL               string `toml:"base_url"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	InsecureSkipVerify    bool   `toml:"insecure_skip_verify"`
	BreakerThreshold      int    `toml:"breaker_threshold"`
	BreakerCooloffSeconds int    `toml:"breaker_cooloff_seconds"`
}

// SyncConfig controls the ingestion jobs.
type SyncConfig struct {
	// AccountKinds filters which account kinds to sync; empty means
	// every known kind.
	AccountKinds []string `toml:"account_kinds"`
	// ExecutionLookbackDays bounds the execution fetch window.
	ExecutionLookbackDays int `toml:"execution_lookback_days"`
	// Parallelism caps concurrent per-account syncs in batch mode.
	Parallelism int `toml:"parallelism"`
}

// EngineConfig controls strategy execution.
type EngineConfig struct {
	// ContextLookbackDays is the recent-activity window handed to
	// strategies.
	ContextLookbackDays int `toml:"context_lookback_days"`
	// SchemaCatalogPath optionally overrides the embedded config
	// schema catalog.
	SchemaCatalogPath string `toml:"schema_catalog_path"`
	// IntervalSeconds is the daemon scheduler cadence.
	IntervalSeconds int          `toml:"interval_seconds"`
	Safety          SafetyConfig `toml:"safety"`
}

// SafetyConfig bounds what a single run may emit.
type SafetyConfig struct {
	MaxRecommendations int     `toml:"max_recommendations"`
	MaxPerPlan         int     `toml:"max_per_plan"`
	MaxTotalNotional   float64 `toml:"max_total_notional"`
}

// keySet tracks the field paths explicitly present in the config
// files, so defaults never clobber explicit zero values.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
