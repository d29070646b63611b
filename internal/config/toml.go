// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/steady/internal/rules"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Rules    RulesConfig    `toml:"rules"`
	Guidance GuidanceConfig `toml:"guidance"`
	Log      LogConfig      `toml:"log"`
}

// RulesConfig maps rule thresholds; unset fields keep the engine defaults.
type RulesConfig struct {
	ReactivityThreshold  *int     `toml:"reactivity-threshold"`
	PersistenceThreshold *int     `toml:"persistence-threshold"`
	SensitivityThreshold *int     `toml:"sensitivity-threshold"`
	TemperamentWeight    *float64 `toml:"temperament-weight"`
}

// Patch converts the file settings into an engine patch.
func (c RulesConfig) Patch() rules.Patch {
	return rules.Patch{
		HighReactivityThreshold:  c.ReactivityThreshold,
		HighPersistenceThreshold: c.PersistenceThreshold,
		HighSensitivityThreshold: c.SensitivityThreshold,
		TemperamentWeight:        c.TemperamentWeight,
	}
}

// GuidanceConfig maps guidance settings.
type GuidanceConfig struct {
	Approach *string `toml:"approach"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
