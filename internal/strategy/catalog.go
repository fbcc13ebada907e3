package strategy

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"wheelhouse/internal/logger"
)

//go:embed schemas.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Schemas map[string]map[string]any `yaml:"schemas" mapstructure:"schemas"`
}

// CatalogSnapshot is an immutable view of the loaded schemas.
type CatalogSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Schemas  map[string]map[string]any
}

// Catalog holds the default config schemas, keyed "slug:version". The
// embedded catalog is always available; an on-disk override is watched
// and hot-reloaded.
type Catalog struct {
	mu       sync.RWMutex
	snapshot CatalogSnapshot
}

// NewCatalog loads the embedded default catalog.
func NewCatalog() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(defaultCatalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing embedded schema catalog failed: %w", err)
	}
	c := &Catalog{}
	c.install(file.Schemas)
	return c, nil
}

// NewCatalogFromFile loads the catalog from a YAML file and reloads it
// on change. A broken rewrite keeps the last good snapshot.
func NewCatalogFromFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("schema catalog requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading schema catalog failed: %w", err)
	}
	c := &Catalog{}
	if err := c.reloadFrom(v); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := c.reloadFrom(v); err != nil {
			logger.Errorf("schema catalog reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return c, nil
}

func (c *Catalog) reloadFrom(v *viper.Viper) error {
	var file catalogFile
	if err := v.Unmarshal(&file); err != nil {
		return fmt.Errorf("parsing schema catalog failed: %w", err)
	}
	c.install(file.Schemas)
	logger.Infof("schema catalog loaded: %d schemas", len(file.Schemas))
	return nil
}

func (c *Catalog) install(schemas map[string]map[string]any) {
	normalized := make(map[string]map[string]any, len(schemas))
	for key, schema := range schemas {
		normalized[strings.ToLower(strings.TrimSpace(key))] = schema
	}
	c.mu.Lock()
	c.snapshot = CatalogSnapshot{
		Version:  c.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Schemas:  normalized,
	}
	c.mu.Unlock()
}

// Schema returns the catalog schema for a slug/version pair.
func (c *Catalog) Schema(slug, version string) (map[string]any, bool) {
	key := strings.ToLower(strings.TrimSpace(slug) + ":" + strings.TrimSpace(version))
	c.mu.RLock()
	defer c.mu.RUnlock()
	schema, ok := c.snapshot.Schemas[key]
	return schema, ok
}

// Snapshot returns the current catalog view.
func (c *Catalog) Snapshot() CatalogSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}
