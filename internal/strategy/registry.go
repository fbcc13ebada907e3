package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wheelhouse/internal/logger"
	"wheelhouse/internal/store"
	"wheelhouse/internal/store/model"
)

// Factory builds a fresh strategy implementation.
type Factory func() Strategy

// Registry resolves StrategyVersion code refs ("module/path:Symbol")
// to compiled implementations. There is no dynamic loading: every
// runnable strategy is registered at startup, and an unknown code ref
// is a ConfigError fatal only to that version.
type Registry struct {
	catalog *Catalog

	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry(catalog *Catalog) *Registry {
	return &Registry{
		catalog:   catalog,
		factories: make(map[string]Factory),
	}
}

// Register wires a factory for a code ref, replacing any previous one.
func (r *Registry) Register(codeRef string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.TrimSpace(codeRef)] = factory
}

// Resolve returns a fresh strategy for the version's code ref.
func (r *Registry) Resolve(version *model.StrategyVersion) (Strategy, error) {
	codeRef := strings.TrimSpace(version.CodeRef)
	if codeRef == "" {
		return nil, &ConfigError{
			Subject:    subjectFor(version),
			Violations: []string{"version has no code ref"},
		}
	}
	r.mu.RLock()
	factory, ok := r.factories[codeRef]
	r.mu.RUnlock()
	if !ok {
		return nil, &ConfigError{
			Subject:    subjectFor(version),
			Violations: []string{fmt.Sprintf("no registered strategy for code ref %q", codeRef)},
		}
	}
	return factory(), nil
}

// EffectiveSchema picks the schema that governs instances of a
// version: the version's own schema wins, then the default catalog by
// "slug:version", then none.
func (r *Registry) EffectiveSchema(def *model.StrategyDefinition, version *model.StrategyVersion) map[string]any {
	if len(version.Schema) > 0 {
		return map[string]any(version.Schema)
	}
	if r.catalog != nil && def != nil {
		if schema, ok := r.catalog.Schema(def.Slug, version.Version); ok {
			return schema
		}
	}
	return nil
}

// ValidateInstanceConfig validates an instance config against the
// effective schema. A nil return means the instance may run.
func (r *Registry) ValidateInstanceConfig(def *model.StrategyDefinition, version *model.StrategyVersion, instance *model.StrategyInstance) error {
	schema := r.EffectiveSchema(def, version)
	violations := ValidateConfig(schema, map[string]any(instance.Config))
	if len(violations) == 0 {
		return nil
	}
	return &ConfigError{
		Subject:    fmt.Sprintf("instance %s", instance.Name),
		Violations: violations,
	}
}

// VersionStatus is one row of the registered-strategy listing.
type VersionStatus struct {
	DefinitionName string
	Slug           string
	Version        string
	CodeRef        string
	HasSchema      bool
	Err            error
}

// ListRegistered reports every stored version together with whether it
// resolves. Broken versions are listed with their error instead of
// aborting the listing.
func (r *Registry) ListRegistered(ctx context.Context, repos store.Repos) ([]VersionStatus, error) {
	versions, err := repos.Strategies().ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]VersionStatus, 0, len(versions))
	for i := range versions {
		version := &versions[i]
		status := VersionStatus{
			Version: version.Version,
			CodeRef: version.CodeRef,
		}
		def, err := repos.Strategies().GetDefinition(ctx, version.DefinitionID)
		if err != nil {
			status.Err = err
			statuses = append(statuses, status)
			continue
		}
		status.DefinitionName = def.Name
		status.Slug = def.Slug
		status.HasSchema = r.EffectiveSchema(def, version) != nil
		if _, err := r.Resolve(version); err != nil {
			logger.Warnf("strategy version %s %s does not resolve: %v", def.Slug, version.Version, err)
			status.Err = err
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Slug != statuses[j].Slug {
			return statuses[i].Slug < statuses[j].Slug
		}
		return statuses[i].Version < statuses[j].Version
	})
	return statuses, nil
}

func subjectFor(version *model.StrategyVersion) string {
	return fmt.Sprintf("version %s (%s)", version.Version, version.ID)
}
