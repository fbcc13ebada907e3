package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"wheelhouse/internal/store/model"
)

func TestRegistryResolveUnknownCodeRef(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	registry := NewRegistry(catalog)

	version := &model.StrategyVersion{Version: "v1", CodeRef: "nowhere:Nothing"}
	_, err = registry.Resolve(version)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "nowhere:Nothing")
}

func TestRegistryResolveEmptyCodeRef(t *testing.T) {
	catalog, _ := NewCatalog()
	registry := NewRegistry(catalog)
	_, err := registry.Resolve(&model.StrategyVersion{Version: "v1"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEffectiveSchemaPrecedence(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	registry := NewRegistry(catalog)

	def := &model.StrategyDefinition{Name: "Wheel", Slug: "wheel"}

	// Version schema wins over the catalog.
	own := &model.StrategyVersion{
		Version: "v1",
		Schema:  datatypes.JSONMap{"type": "object"},
	}
	schema := registry.EffectiveSchema(def, own)
	require.NotNil(t, schema)
	assert.NotContains(t, schema, "properties")

	// Without one, the embedded catalog entry for wheel:v1 applies.
	bare := &model.StrategyVersion{Version: "v1"}
	schema = registry.EffectiveSchema(def, bare)
	require.NotNil(t, schema)
	assert.Contains(t, schema, "properties")

	// Unknown slug/version: no schema at all.
	other := &model.StrategyDefinition{Name: "X", Slug: "mystery"}
	assert.Nil(t, registry.EffectiveSchema(other, bare))
}

func TestValidateInstanceConfigAgainstCatalog(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	registry := NewRegistry(catalog)

	def := &model.StrategyDefinition{Name: "Wheel", Slug: "wheel"}
	version := &model.StrategyVersion{Version: "v1"}

	good := &model.StrategyInstance{
		Name:   "good",
		Config: datatypes.JSONMap{"target_symbols": []any{"AAPL"}},
	}
	assert.NoError(t, registry.ValidateInstanceConfig(def, version, good))

	bad := &model.StrategyInstance{
		Name:   "bad",
		Config: datatypes.JSONMap{"unexpected": true},
	}
	err = registry.ValidateInstanceConfig(def, version, bad)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Violations, 2)
}

func TestListRegisteredSwallowsBrokenVersions(t *testing.T) {
	w := seedWorld(t, "ghost:Nowhere", nil)
	catalog, _ := NewCatalog()
	registry := NewRegistry(catalog)
	RegisterBuiltins(registry)

	ctx := context.Background()
	repos := w.store.Repos()

	def := &model.StrategyDefinition{Name: "Wheel", Slug: "wheel"}
	require.NoError(t, repos.Strategies().CreateDefinition(ctx, def))
	require.NoError(t, repos.Strategies().CreateVersion(ctx, &model.StrategyVersion{
		DefinitionID: def.ID,
		Version:      "v1",
		CodeRef:      CodeRefWheelV1,
	}))

	statuses, err := registry.ListRegistered(ctx, repos)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	bySlug := map[string]VersionStatus{}
	for _, status := range statuses {
		bySlug[status.Slug] = status
	}
	assert.Error(t, bySlug["test"].Err)
	assert.NoError(t, bySlug["wheel"].Err)
	assert.True(t, bySlug["wheel"].HasSchema)
}
