// Package stdlib bundles the standard library's .amm source files into the
// amc binary with go:embed and materializes them to disk before a Driver
// run, so a single binary works without a sibling stdlib directory on the
// user's machine.
package stdlib

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sunholo/amc/internal/module"
)

//go:embed source/*.amm
var source embed.FS

// RootModule is the always-loaded base module every other standard library
// file may depend on; it has no dependencies of its own, so topological
// ordering always places it first.
const RootModule = "@std/root"

// Extract writes every embedded .amm file into a fresh temporary directory
// and returns its path, suitable for AMC_STDLIB. Each call gets its own
// directory so concurrent amc invocations never share mutable state.
func Extract() (string, error) {
	dir, err := os.MkdirTemp("", "amc-stdlib-")
	if err != nil {
		return "", err
	}
	entries, err := fs.ReadDir(source, "source")
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(source, filepath.Join("source", entry.Name()))
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), content, 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// Prepare extracts the embedded standard library and points AMC_STDLIB at
// it, unless the environment already names a directory (a developer
// iterating on stdlib sources in place takes priority over the bundled
// copy). It must run before the first module.NewLoader call in a process,
// since the resolver reads AMC_STDLIB once at construction.
func Prepare() error {
	if os.Getenv("AMC_STDLIB") != "" {
		return nil
	}
	dir, err := Extract()
	if err != nil {
		return err
	}
	return os.Setenv("AMC_STDLIB", dir)
}

// Load forces the base standard library module into loader, ahead of the
// user's root file, so its types and functions are cached and available to
// every module that imports @std/... even when the root file itself does
// not.
func Load(loader *module.Loader) error {
	_, err := loader.Load(RootModule, "")
	return err
}
