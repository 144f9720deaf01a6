package config

import (
	"github.com/yndnr/chanstore/internal/infra/confloader"
)

// Load reads configuration from defaults, the YAML file at path (optional),
// CHANSTORE_* environment variables and overrides, in increasing
// priority. The result is not verified.
func Load(path string, overrides map[string]any) (*Config, error) {
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(DefaultMap()),
		confloader.WithOverrides(overrides),
	)

	cfg := &Config{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
