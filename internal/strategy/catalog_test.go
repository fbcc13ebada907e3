package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	schema, ok := catalog.Schema("wheel", "v1")
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema, "properties")

	_, ok = catalog.Schema("momentum", "v1")
	assert.False(t, ok)

	// Lookup is case and whitespace insensitive.
	_, ok = catalog.Schema(" WHEEL ", "V1")
	assert.True(t, ok)
}

func TestCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	body := `
schemas:
  "covered-call:v2":
    type: object
    required:
      - target_symbols
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	catalog, err := NewCatalogFromFile(path)
	require.NoError(t, err)

	schema, ok := catalog.Schema("covered-call", "v2")
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])

	snap := catalog.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.Len(t, snap.Schemas, 1)
}

func TestCatalogFromFileRequiresPath(t *testing.T) {
	_, err := NewCatalogFromFile("  ")
	require.Error(t, err)
}
