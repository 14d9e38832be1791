// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the TrustCart
// server. It loads YAML configuration files and applies environment
// overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/trustcart/trustcart/internal/audit"
	"github.com/trustcart/trustcart/internal/ollama"
	"github.com/trustcart/trustcart/internal/verify"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the application configuration, loaded from a YAML file.
type Config struct {
	// Host is the interface the API server binds. Empty binds all.
	Host string `yaml:"host" json:"-"`
	// Port is the API server port.
	Port int `yaml:"port" json:"-"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile switches application logs from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// Store selects and configures the persistence backend.
	Store StoreConfig `yaml:"store" json:"store"`

	// Ollama configures the optional AI scorer.
	Ollama OllamaConfig `yaml:"ollama" json:"ollama"`

	// Scoring overrides the verification scoring weights.
	Scoring verify.Weights `yaml:"scoring" json:"scoring"`

	// Audit configures the verification audit trail.
	Audit audit.Config `yaml:"audit" json:"audit"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite", "postgres".
	Backend string `yaml:"backend" json:"backend"`

	// Path is the SQLite database file path.
	Path string `yaml:"path" json:"path"`

	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn" json:"-"`
}

// OllamaConfig wraps the client settings with orchestration options.
type OllamaConfig struct {
	ollama.Config `yaml:",inline"`

	// Enabled toggles the AI scoring path entirely.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// ProbeTimeoutSeconds bounds the liveness probe. Default 3.
	ProbeTimeoutSeconds int `yaml:"probe-timeout-seconds" json:"probe-timeout-seconds"`

	// ScoreTimeoutSeconds bounds the analysis call. Default 30.
	ScoreTimeoutSeconds int `yaml:"score-timeout-seconds" json:"score-timeout-seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port: 8317,
		Store: StoreConfig{
			Backend: StoreSQLite,
			Path:    "trustcart.db",
		},
		Ollama: OllamaConfig{
			Enabled:             true,
			ProbeTimeoutSeconds: 3,
			ScoreTimeoutSeconds: 30,
		},
		Scoring: verify.DefaultWeights(),
		Audit: audit.Config{
			Enabled: true,
			LogPath: "logs/audit.log",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("TRUSTCART_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("TRUSTCART_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StorePostgres && c.Store.DSN == "" {
		return fmt.Errorf("postgres store requires a dsn")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
