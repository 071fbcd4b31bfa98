package stdlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/amc/internal/module"
)

func TestExtractWritesEveryBundledFile(t *testing.T) {
	dir, err := Extract()
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, name := range []string{"root.amm", "list.amm"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "bundled file %q not extracted", name)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestPrepareRespectsExistingEnv(t *testing.T) {
	t.Setenv("AMC_STDLIB", "/already/set")
	require.NoError(t, Prepare())
	assert.Equal(t, "/already/set", os.Getenv("AMC_STDLIB"))
}

func TestLoadRootModule(t *testing.T) {
	dir, err := Extract()
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	t.Setenv("AMC_STDLIB", dir)

	loader := module.NewLoader()
	require.NoError(t, Load(loader))

	root, ok := loader.Module(RootModule)
	require.True(t, ok, "base module should be cached under %q", RootModule)
	assert.True(t, root.Exports["identity"])
	assert.True(t, root.Exports["max"])
	assert.True(t, root.Exports["Option"])
	assert.True(t, root.Exports["Comparable"])
}
