package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
stdlibPath: /opt/amc/stdlib
searchPaths:
  - ./vendor
  - /usr/share/amc
outputFormat: json
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/amc/stdlib", cfg.StdlibPath)
	assert.Equal(t, []string{"./vendor", "/usr/share/amc"}, cfg.SearchPaths)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadFileDefaultsOutputFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stdlibPath: /x\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.OutputFormat)
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "outputFormat: text\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, filepath.Join(root, FileName), Find(nested))
	assert.Equal(t, "", Find(t.TempDir()))
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "stdlibPath: /from/file\n")
	t.Setenv("AMC_STDLIB", "/from/env")
	t.Setenv("AMC_PATH", "/p1"+string(os.PathListSeparator)+"/p2")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.StdlibPath, "environment wins over the project file")
	assert.Equal(t, []string{"/p1", "/p2"}, cfg.SearchPaths)
}

func TestLoadWithoutProjectFile(t *testing.T) {
	t.Setenv("AMC_STDLIB", "")
	t.Setenv("AMC_PATH", "")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyExportsToEnvironment(t *testing.T) {
	t.Setenv("AMC_STDLIB", "")
	t.Setenv("AMC_PATH", "")
	cfg := &Config{StdlibPath: "/s", SearchPaths: []string{"/a", "/b"}}
	require.NoError(t, cfg.Apply())
	assert.Equal(t, "/s", os.Getenv("AMC_STDLIB"))
	assert.Equal(t, "/a"+string(os.PathListSeparator)+"/b", os.Getenv("AMC_PATH"))
}
