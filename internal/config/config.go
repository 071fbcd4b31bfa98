// Package config resolves the amc toolchain's configuration from, in
// increasing precedence: an optional amc.yaml project file and the
// AMC_STDLIB / AMC_PATH environment variables. There is no CLI flag layer.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file amc looks for, walking up
// from the working directory.
const FileName = "amc.yaml"

// Config is the fully resolved toolchain configuration.
type Config struct {
	// StdlibPath overrides where the bundled standard library is read
	// from. Empty means "extract the embedded copy".
	StdlibPath string `yaml:"stdlibPath"`
	// SearchPaths are extra directories consulted for bare imports.
	SearchPaths []string `yaml:"searchPaths"`
	// OutputFormat is "text" (default) or "json" for diagnostics.
	OutputFormat string `yaml:"outputFormat"`
}

// Default returns the zero configuration with defaults applied.
func Default() *Config {
	return &Config{OutputFormat: "text"}
}

// LoadFile parses one amc.yaml file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}
	return cfg, nil
}

// Find walks up from dir looking for an amc.yaml, returning its path or
// empty when no project file exists.
func Find(dir string) string {
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load resolves the effective configuration for the working directory:
// the nearest amc.yaml (if any) overlaid with the environment. Returns
// defaults when neither exists.
func Load(dir string) (*Config, error) {
	cfg := Default()
	if path := Find(dir); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if stdlib := os.Getenv("AMC_STDLIB"); stdlib != "" {
		c.StdlibPath = stdlib
	}
	if path := os.Getenv("AMC_PATH"); path != "" {
		for _, p := range strings.Split(path, string(os.PathListSeparator)) {
			if p != "" {
				c.SearchPaths = append(c.SearchPaths, p)
			}
		}
	}
}

// Apply exports the resolved configuration back into the environment the
// module resolver reads (AMC_STDLIB, AMC_PATH). The resolver samples the
// environment once at construction, so Apply must run before the first
// driver is built.
func (c *Config) Apply() error {
	if c.StdlibPath != "" {
		if err := os.Setenv("AMC_STDLIB", c.StdlibPath); err != nil {
			return err
		}
	}
	if len(c.SearchPaths) > 0 {
		joined := strings.Join(c.SearchPaths, string(os.PathListSeparator))
		if err := os.Setenv("AMC_PATH", joined); err != nil {
			return err
		}
	}
	return nil
}
