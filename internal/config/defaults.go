package config

import "strings"

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppLogPath       = "/data/logs/wheelhouse.log"
	defaultDatabasePath     = "/data/db/wheelhouse.db"
	defaultIBKRBaseURL      = "https://localhost:5000"
	defaultIBKRTimeout      = 15
	defaultBreakerThreshold = 3
	defaultBreakerCooloff   = 30
	defaultExecLookbackDays = 7
	defaultSyncParallelism  = 4
	defaultContextLookback  = 7
	defaultEngineInterval   = 3600
	defaultMaxRecs          = 50
	defaultMaxPerPlan       = 10
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.IBKR.applyDefaults(keys)
	c.Sync.applyDefaults(keys)
	c.Engine.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("database.path", &d.Path, defaultDatabasePath),
	)
}

func (i *IBKRConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("ibkr.base_url", &i.BaseURL, defaultIBKRBaseURL),
		fieldDefault{
			key:   "ibkr.timeout_seconds",
			need:  func() bool { return i.TimeoutSeconds <= 0 },
			apply: func() { i.TimeoutSeconds = defaultIBKRTimeout },
		},
		fieldDefault{
			key:   "ibkr.breaker_threshold",
			need:  func() bool { return i.BreakerThreshold <= 0 },
			apply: func() { i.BreakerThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "ibkr.breaker_cooloff_seconds",
			need:  func() bool { return i.BreakerCooloffSeconds <= 0 },
			apply: func() { i.BreakerCooloffSeconds = defaultBreakerCooloff },
		},
	)
}

func (s *SyncConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "sync.execution_lookback_days",
			need:  func() bool { return s.ExecutionLookbackDays <= 0 },
			apply: func() { s.ExecutionLookbackDays = defaultExecLookbackDays },
		},
		fieldDefault{
			key:   "sync.parallelism",
			need:  func() bool { return s.Parallelism <= 0 },
			apply: func() { s.Parallelism = defaultSyncParallelism },
		},
	)
	for idx, kind := range s.AccountKinds {
		s.AccountKinds[idx] = strings.ToUpper(strings.TrimSpace(kind))
	}
}

func (e *EngineConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "engine.context_lookback_days",
			need:  func() bool { return e.ContextLookbackDays <= 0 },
			apply: func() { e.ContextLookbackDays = defaultContextLookback },
		},
		fieldDefault{
			key:   "engine.interval_seconds",
			need:  func() bool { return e.IntervalSeconds <= 0 },
			apply: func() { e.IntervalSeconds = defaultEngineInterval },
		},
		fieldDefault{
			key:   "engine.safety.max_recommendations",
			need:  func() bool { return e.Safety.MaxRecommendations <= 0 },
			apply: func() { e.Safety.MaxRecommendations = defaultMaxRecs },
		},
		fieldDefault{
			key:   "engine.safety.max_per_plan",
			need:  func() bool { return e.Safety.MaxPerPlan <= 0 },
			apply: func() { e.Safety.MaxPerPlan = defaultMaxPerPlan },
		},
	)
	if e.Safety.MaxTotalNotional < 0 {
		e.Safety.MaxTotalNotional = 0
	}
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
