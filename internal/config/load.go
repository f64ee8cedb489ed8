package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Load resolves the configuration: defaults, then the config file, then
// command-line flags. The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path), Default())
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, preferring the
// working directory over the user config directory.
func findConfigFile() string {
	for _, path := range []string{fileName, filepath.Join(ConfigDir(), fileName)} {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user meshspy config directory.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "meshspy")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors relative paths set by the config file at the file's
// directory. Values still equal to their default stay relative to the
// working directory.
func (c *Config) resolvePaths(dir string, defaults *Config) {
	anchor := func(p, def string) string {
		if p == "" || p == def || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Viewer.EnvironmentMap = anchor(c.Viewer.EnvironmentMap, defaults.Viewer.EnvironmentMap)
	c.Screenshot.Dir = anchor(c.Screenshot.Dir, defaults.Screenshot.Dir)
	c.Logging.LogFile = anchor(c.Logging.LogFile, defaults.Logging.LogFile)
}
