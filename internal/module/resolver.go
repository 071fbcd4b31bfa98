// Package module assembles a parsed Program, and the transitive closure of
// its imports, into the fully populated scope the lowering core reads from:
// types, interfaces, constants, functions, operators, exports and event
// handlers, bound in the fixed order the component design lays out.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Resolver turns an import path into a `.amm` file on disk. Paths starting
// with `@std/` resolve against the bundled standard library directory,
// `./` and `../` resolve relative to the importing file, and bare names
// search the project root plus any AMC_PATH entries.
type Resolver struct {
	projectRoot   string
	stdlibPath    string
	searchPaths   []string
	caseSensitive bool
}

func NewResolver() *Resolver {
	return &Resolver{
		projectRoot:   findProjectRoot(),
		stdlibPath:    findStdlibPath(),
		searchPaths:   getSearchPaths(),
		caseSensitive: isFileSystemCaseSensitive(),
	}
}

func (r *Resolver) NormalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("make path absolute: %w", err)
		}
		path = abs
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	return resolved, nil
}

// ResolveImport maps an import path to a file, per its shape: a `@std/`
// standard-library reference, a `./`-relative sibling file, or a bare
// project-local/search-path name.
func (r *Resolver) ResolveImport(importPath string, currentFile string) (string, error) {
	switch {
	case strings.HasPrefix(importPath, "@std/"):
		return r.resolveStdlibImport(importPath)
	case strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../"):
		return r.resolveRelativeImport(importPath, currentFile)
	default:
		return r.resolveProjectImport(importPath)
	}
}

func (r *Resolver) resolveRelativeImport(importPath, currentFile string) (string, error) {
	if currentFile == "" {
		return "", fmt.Errorf("relative import %q requires a current file context", importPath)
	}
	path := filepath.Join(filepath.Dir(currentFile), importPath)
	if !strings.HasSuffix(path, ".amm") {
		path += ".amm"
	}
	normalized, err := r.NormalizePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(normalized); err != nil {
		return "", fmt.Errorf("module not found: %s", importPath)
	}
	return normalized, nil
}

func (r *Resolver) resolveStdlibImport(importPath string) (string, error) {
	libPath := strings.TrimPrefix(importPath, "@std/")
	path := filepath.Join(r.stdlibPath, libPath)
	if !strings.HasSuffix(path, ".amm") {
		path += ".amm"
	}
	normalized, err := r.NormalizePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(normalized); err != nil {
		return "", fmt.Errorf("stdlib module not found: %s", importPath)
	}
	return normalized, nil
}

func (r *Resolver) resolveProjectImport(importPath string) (string, error) {
	path := filepath.Join(r.projectRoot, importPath)
	if !strings.HasSuffix(path, ".amm") {
		path += ".amm"
	}
	if normalized, err := r.NormalizePath(path); err == nil {
		if _, err := os.Stat(normalized); err == nil {
			return normalized, nil
		}
	}
	for _, searchPath := range r.searchPaths {
		p := filepath.Join(searchPath, importPath)
		if !strings.HasSuffix(p, ".amm") {
			p += ".amm"
		}
		if normalized, err := r.NormalizePath(p); err == nil {
			if _, err := os.Stat(normalized); err == nil {
				return normalized, nil
			}
		}
	}
	return "", fmt.Errorf("module not found: %s", importPath)
}

func findProjectRoot() string {
	markers := []string{"go.mod", ".git", "amc.yaml"}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	pwd, _ := os.Getwd()
	return pwd
}

func findStdlibPath() string {
	if stdlib := os.Getenv("AMC_STDLIB"); stdlib != "" {
		return stdlib
	}
	if exe, err := os.Executable(); err == nil {
		for _, candidate := range []string{
			filepath.Join(filepath.Dir(exe), "..", "stdlib"),
			filepath.Join(filepath.Dir(exe), "stdlib"),
		} {
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate
			}
		}
	}
	if stdlib := filepath.Join(findProjectRoot(), "stdlib"); dirExists(stdlib) {
		return stdlib
	}
	return filepath.Join(".", "stdlib")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func getSearchPaths() []string {
	var paths []string
	if amcPath := os.Getenv("AMC_PATH"); amcPath != "" {
		for _, p := range strings.Split(amcPath, string(os.PathListSeparator)) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".amc", "modules"))
	}
	paths = append(paths, findProjectRoot())
	return paths
}

func isFileSystemCaseSensitive() bool {
	switch runtime.GOOS {
	case "windows", "darwin":
		return false
	default:
		return true
	}
}
