package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// EnvConfig holds overrides read from the environment. Empty means unset.
type EnvConfig struct {
	DBPath     string `env:"STEADY_DB_PATH"`
	ConfigPath string `env:"STEADY_CONFIG_PATH"`
	LogLevel   string `env:"STEADY_LOG_LEVEL"`
	LogFile    string `env:"STEADY_LOG_FILE"`
}

// LoadEnv loads dir/.env when present, without overriding variables that are
// already set, then parses the STEADY_* variables.
func LoadEnv(dir string) (EnvConfig, error) {
	if dir != "" {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
