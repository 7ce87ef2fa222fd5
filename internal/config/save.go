package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const saveHeader = "# moment-oit viewer settings, rewritten on exit\n"

// Save writes c to config.yaml in ConfigDir.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), fileName))
}

// SaveTo writes c to path through a temporary file in the same
// directory, so readers never see a partial file.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+fileName+"-*")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(saveHeader); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err = enc.Encode(c); err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err = enc.Close(); err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
