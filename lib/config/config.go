// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for kernelbundle
// components.
//
// Configuration is loaded from a single file specified by:
//   - KERNELBUNDLE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for kernelbundle.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Bundling configures whether kernel bundling is active.
	Bundling BundlingConfig `yaml:"bundling"`

	// Cache configures replay cache locations and the portable
	// bundle encoding.
	Cache CacheConfig `yaml:"cache"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Bundling *BundlingConfig `yaml:"bundling,omitempty"`
	Cache    *CacheConfig    `yaml:"cache,omitempty"`
}

// BundlingConfig configures whether compiled kernels are bundled into
// the compilation cache.
type BundlingConfig struct {
	// Enabled is the explicit override. When present it wins
	// outright: true forces bundling on, false forces it off,
	// regardless of any feature gate. Absent means "ask the gate".
	Enabled *bool `yaml:"enabled"`

	// FeatureGate is the gate name consulted when Enabled is absent.
	// Default: "remote_cache:bundle_kernels"
	FeatureGate string `yaml:"feature_gate"`
}

// CacheConfig configures replay cache locations and bundle encoding.
type CacheConfig struct {
	// Root overrides the default replay cache root. Empty means the
	// resolver default (KERNELBUNDLE_CACHE_DIR, else a per-user
	// temp directory).
	Root string `yaml:"root"`

	// Compression selects the portable bundle compression algorithm.
	// Values: "none", "lz4", "zstd". Default: zstd
	Compression string `yaml:"compression"`
}

// Gate reports whether a named feature is active for this host. The
// production implementation queries an internal feature-flag service;
// tests and open-source deployments use [StaticGate].
type Gate interface {
	Active(name string) bool
}

// StaticGate is a Gate backed by a fixed set of active feature names.
type StaticGate map[string]bool

// Active reports whether name is in the set.
func (g StaticGate) Active(name string) bool {
	return g[name]
}

// BundlingEnabled resolves the enablement decision: the explicit
// override wins outright; otherwise bundling is disabled unless the
// gate reports the configured feature active. A nil gate means no
// gate service is reachable, which resolves to disabled. Never fails.
func (c *Config) BundlingEnabled(gate Gate) bool {
	if c.Bundling.Enabled != nil {
		return *c.Bundling.Enabled
	}
	if gate == nil {
		return false
	}
	return gate.Active(c.Bundling.FeatureGate)
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Bundling: BundlingConfig{
			FeatureGate: "remote_cache:bundle_kernels",
		},
		Cache: CacheConfig{
			Compression: "zstd",
		},
	}
}

// Load loads configuration from KERNELBUNDLE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if KERNELBUNDLE_CONFIG is not set,
// this fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("KERNELBUNDLE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("KERNELBUNDLE_CONFIG environment variable not set; " +
			"set it to the path of your kernelbundle.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do
// not override config values - this ensures deterministic, auditable
// configuration. The only expansion performed is ${HOME} and similar path
// variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.Cache.Root = expandVars(cfg.Cache.Root, map[string]string{
		"HOME": os.Getenv("HOME"),
	})

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Bundling != nil {
		if overrides.Bundling.Enabled != nil {
			c.Bundling.Enabled = overrides.Bundling.Enabled
		}
		if overrides.Bundling.FeatureGate != "" {
			c.Bundling.FeatureGate = overrides.Bundling.FeatureGate
		}
	}

	if overrides.Cache != nil {
		if overrides.Cache.Root != "" {
			c.Cache.Root = overrides.Cache.Root
		}
		if overrides.Cache.Compression != "" {
			c.Cache.Compression = overrides.Cache.Compression
		}
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Bundling.FeatureGate == "" {
		errs = append(errs, fmt.Errorf("bundling.feature_gate is required"))
	}

	compressionValues := []string{"none", "lz4", "zstd"}
	if !contains(compressionValues, c.Cache.Compression) {
		errs = append(errs, fmt.Errorf("cache.compression must be one of: %v", compressionValues))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
