// Package testutil provides the golden-file harness used by the driver's
// end-to-end AMM emission tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// UpdateGoldens controls whether golden files are rewritten instead of
// compared. Set via: UPDATE_GOLDENS=true go test ./...
var UpdateGoldens = os.Getenv("UPDATE_GOLDENS") == "true"

// GoldenPath returns the on-disk path of a named golden AMM file.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name+".amm.golden")
}

// CompareWithGolden compares emitted AMM text against the named golden
// file, rewriting it in update mode. AMM output is deterministic (the
// synthetic name generator is a counter, not a UUID), so goldens are
// byte-exact.
func CompareWithGolden(t *testing.T, name string, actual string) {
	t.Helper()
	path := GoldenPath(name)

	if UpdateGoldens {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file does not exist: %s\nrun with UPDATE_GOLDENS=true to create it", path)
		}
		t.Fatalf("failed to read golden file: %v", err)
	}
	if diff := cmp.Diff(string(expected), actual); diff != "" {
		t.Errorf("AMM output mismatch for %s (-golden +actual):\n%s", name, diff)
	}
}

// WriteSource writes a source file into a temporary directory and returns
// its path, for tests that drive the loader or driver from disk.
func WriteSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write source file %s: %v", name, err)
	}
	return path
}
