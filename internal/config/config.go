// Package config loads the YAML configuration. A file may pull in
// other files through an `include` list; includes merge first, so the
// including file wins on conflict.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	if err := mergeTree(v, abs, make(map[string]bool)); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	markExplicitKeys("", v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeTree merges one file's include chain depth-first into v,
// includes before the file itself. active is the in-progress include
// stack, so a file including itself through any chain fails instead
// of recursing.
func mergeTree(v *viper.Viper, path string, active map[string]bool) error {
	path = filepath.Clean(path)
	if active[path] {
		return fmt.Errorf("config include cycle at %s", path)
	}
	active[path] = true
	defer delete(active, path)

	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	for _, inc := range file.GetStringSlice("include") {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := mergeTree(v, inc, active); err != nil {
			return err
		}
	}
	return v.MergeConfigMap(file.AllSettings())
}

// markExplicitKeys records every dotted key path present in the
// merged settings, so applyDefaults can tell an explicit zero from an
// omitted field.
func markExplicitKeys(prefix string, node any, dest keySet) {
	nested, ok := node.(map[string]any)
	if !ok {
		dest.mark(prefix)
		return
	}
	for key, value := range nested {
		path := strings.ToLower(strings.TrimSpace(key))
		if path == "" {
			continue
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		markExplicitKeys(path, value, dest)
	}
}
