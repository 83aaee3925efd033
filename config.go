package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the persisted API account stored in ~/.throne/config.yml.
type Config struct {
	Key      string `yaml:"throne_key"`
	Username string `yaml:"throne_username"`
}

const EnvAPIKey = "THRONE_API_KEY"

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".throne", "config.yml")
	}
	return filepath.Join(home, ".throne", "config.yml")
}

// LoadConfig reads path. A missing file yields an empty Config. The
// THRONE_API_KEY environment variable overrides the stored key.
func LoadConfig(path string) (Config, error) {

	var cfg Config

	bs, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(bs, &cfg); err != nil {
			return cfg, errors.WithMessagef(err, "config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		cfg.Key = v
	}
	cfg.Key = strings.TrimSpace(cfg.Key)
	return cfg, nil
}
