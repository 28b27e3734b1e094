package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_CoversDomainTools(t *testing.T) {
	reg := DefaultRegistry()

	spec, ok := reg.Lookup("generate_contract")
	require.True(t, ok)
	assert.Contains(t, spec.RequiredArgs, "property_id")

	_, ok = reg.Lookup("not_registered")
	assert.False(t, ok)
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	content := `
tools:
  generate_contract:
    required_args: [property_id, buyer_name, seller_name]
  custom_tool:
    required_args: [payload]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := LoadFile(path)
	require.NoError(t, err)

	// File entry overrides the default spec.
	spec, ok := reg.Lookup("generate_contract")
	require.True(t, ok)
	assert.Contains(t, spec.RequiredArgs, "seller_name")

	// New entry is added.
	_, ok = reg.Lookup("custom_tool")
	assert.True(t, ok)

	// Untouched defaults survive.
	_, ok = reg.Lookup("lookup_property")
	assert.True(t, ok)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools: [not, a, map]"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSpec_RequiredStripsOptional(t *testing.T) {
	spec := Spec{RequiredArgs: []string{"a", "b?", "c"}}
	assert.Equal(t, []string{"a", "c"}, spec.required())
}
