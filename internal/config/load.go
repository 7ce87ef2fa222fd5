package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted for a config file
// when -config is not given.
const EnvPath = "MOMENT_OIT_CONFIG"

const fileName = "config.yaml"

// Load builds the effective configuration. Values from the config file
// override the defaults and command-line flags override both.
func Load() (*Config, error) {
	return load(cli)
}

func load(o *overrides) (*Config, error) {
	cfg := Default()
	path := o.path
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config.yaml found in the working
// directory or in ConfigDir.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		path := filepath.Join(dir, fileName)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// ConfigDir is the per-user directory the viewer saves its settings in.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "moment-oit")
}

// loadFromFile decodes path over cfg. Keys missing from the file keep
// their current values, unknown keys are an error.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}
