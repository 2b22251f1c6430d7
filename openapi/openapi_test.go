package openapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	dir := t.TempDir()

	stem := filepath.Join(dir, "p")
	_, ok := Find(stem)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(stem+".yml", []byte("openapi: 3.0.0\n"), 0o600))
	path, ok := Find(stem)
	assert.True(t, ok)
	assert.Equal(t, stem+".yml", path)
}

func TestLoadSchemas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	content := `
openapi: 3.0.0
paths:
  /customers:
    post:
      summary: create a customer
components:
  schemas:
    Customer:
      type: object
    Order:
      type: object
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.True(t, sc.Has("Customer"))
	assert.True(t, sc.Has("Order"))
	assert.False(t, sc.Has("Missing"))
}

func TestHasOnNilSidecar(t *testing.T) {
	var sc *Sidecar
	assert.False(t, sc.Has("anything"))
}
