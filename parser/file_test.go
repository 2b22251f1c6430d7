package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpmdsl.dev/compiler/diag"
)

const minimalSource = `process "M" { id:"m" start "S" {id:"s"} end "E" {id:"e"} flow { "s" -> "e" } }`

func TestParseFileMissingSidecarReturnsIOError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.bpm")
	require.NoError(t, os.WriteFile(path, []byte(minimalSource), 0o600))

	_, _, err := ParseFile(path)
	require.Error(t, err)

	var me *diag.MissingOpenAPIError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, diag.IO, me.Kind())
}

func TestParseFileWithSidecarSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.bpm")
	require.NoError(t, os.WriteFile(path, []byte(minimalSource), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.yaml"), []byte("openapi: 3.0.0\n"), 0o600))

	proc, sidecar, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "m", proc.ID)
	assert.NotNil(t, sidecar)
}
