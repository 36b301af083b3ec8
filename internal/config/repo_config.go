// Package config reads and writes the repository-scoped taskstack
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the config file kept inside .git so it never enters the
// commit graph.
const ConfigFileName = "taskstack.yml"

// RepoConfig is the repository configuration.
type RepoConfig struct {
	// Base is the default base branch for new stacks.
	Base string `yaml:"base,omitempty"`
	// Prefix is the default task-branch name prefix.
	Prefix string `yaml:"prefix,omitempty"`
}

// Defaults used when the config file is missing or a field is unset.
const (
	DefaultBase   = "main"
	DefaultPrefix = "task/"
)

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", ConfigFileName)
}

// IsInitialized reports whether a config file exists for the repository.
func IsInitialized(repoRoot string) bool {
	_, err := os.Stat(configPath(repoRoot))
	return err == nil
}

// Load reads the repository configuration, applying defaults for anything
// unset. A missing file yields the defaults.
func Load(repoRoot string) (*RepoConfig, error) {
	cfg := &RepoConfig{}

	data, err := os.ReadFile(configPath(repoRoot))
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	if cfg.Base == "" {
		cfg.Base = DefaultBase
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return cfg, nil
}

// Save writes the repository configuration.
func Save(repoRoot string, cfg *RepoConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath(repoRoot), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFileName, err)
	}
	return nil
}
