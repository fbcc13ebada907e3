package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.IBKR.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}
	return c.Engine.validate()
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (a *AppConfig) validate() error {
	level := strings.ToLower(strings.TrimSpace(a.LogLevel))
	if !logLevels[level] {
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", a.LogLevel)
	}
	return nil
}

func (i *IBKRConfig) validate() error {
	if strings.TrimSpace(i.BaseURL) == "" {
		return fmt.Errorf("ibkr.base_url cannot be empty")
	}
	return nil
}

var knownAccountKinds = map[string]bool{
	"IBKR":       true,
	"IBKR-PAPER": true,
	"SIM":        true,
}

func (s *SyncConfig) validate() error {
	for _, kind := range s.AccountKinds {
		if !knownAccountKinds[kind] {
			return fmt.Errorf("sync.account_kinds contains unknown kind: %s", kind)
		}
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if e.Safety.MaxPerPlan > e.Safety.MaxRecommendations {
		return fmt.Errorf("engine.safety.max_per_plan cannot exceed max_recommendations")
	}
	return nil
}
