// Package config loads operator-facing settings for the scd command-line
// tools: which attribute partitions to run the engine with, which storage
// backend to bind to, and how to log. It follows the same JSON-file-plus-
// environment-override convention as the rest of the stack: a path may be
// set explicitly, discovered from SCD_CONFIG, or found at one of a few
// common locations, and any of it can be defaulted.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the full settings tree for an scd command-line tool.
type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Store   StoreConfig   `json:"store"`
	Log     LogConfig     `json:"log"`
	Ingest  IngestConfig  `json:"ingest"`
}

// EngineConfig names the dimension's attribute partitioning and bookkeeping
// column overrides. It mirrors scd.Config field-for-field so a loaded
// Config can be handed straight to scd.New after resolving AsOf/MaxTo.
type EngineConfig struct {
	LookupAtts []string `json:"lookup_attributes"`
	Type1Atts  []string `json:"type1_attributes"`
	Type2Atts  []string `json:"type2_attributes"`

	Key        string `json:"key_column"`
	FromAtt    string `json:"from_column"`
	ToAtt      string `json:"to_column"`
	VersionAtt string `json:"version_column"`
	CurrentAtt string `json:"current_column"`
	HashAtt    string `json:"hash_column"`

	// MaxTo and AsOf are "YYYY-MM-DD" strings; empty means let the engine
	// pick its own defaults (2199-12-31 and the current UTC date).
	MaxTo string `json:"max_to"`
	AsOf  string `json:"as_of"`
}

// StoreConfig selects and configures one store.Table backend.
type StoreConfig struct {
	// Backend is one of "memory", "badger", "mysql", "postgres", "sqlite".
	Backend string `json:"backend"`

	Table   string   `json:"table"`
	Columns []string `json:"columns"`

	// IDColumn names the column a database/sql backend uses as its row
	// coordinate (see store/sql). Defaults to Engine.Key when empty.
	IDColumn string `json:"id_column"`

	// BadgerDir is the data directory for the badger backend.
	BadgerDir string `json:"badger_dir"`

	// DSN is the database/sql data source name for mysql/postgres/sqlite.
	DSN string `json:"dsn"`
}

// LogConfig controls the slog handler used across every scd command.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or text
}

// IngestConfig configures the batch loaders (cmd/scdload, cmd/scdserve).
type IngestConfig struct {
	BatchSize   int           `json:"batch_size"`
	WatchPoll   time.Duration `json:"watch_poll"`
	ArchiveDir  string        `json:"archive_dir"`
}

// DefaultConfig returns the settings a fresh checkout runs with: an
// in-memory store and a permissive, unconfigured engine section the caller
// is expected to fill in with its own attribute lists.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Key:        "scd_id",
			FromAtt:    "scd_valid_from",
			ToAtt:      "scd_valid_to",
			VersionAtt: "scd_version",
			CurrentAtt: "scd_current",
			HashAtt:    "scd_hash",
		},
		Store: StoreConfig{
			Backend: "memory",
			Table:   "dimension",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Ingest: IngestConfig{
			BatchSize:  1000,
			WatchPoll:  2 * time.Second,
			ArchiveDir: "",
		},
	}
}

// LoadConfig reads and validates a JSON config file, layering it over
// DefaultConfig. An empty configPath returns the defaults unchanged.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault tries SCD_CONFIG, then a few conventional locations,
// and falls back to DefaultConfig if none load cleanly.
func LoadConfigOrDefault() *Config {
	if envPath := os.Getenv("SCD_CONFIG"); envPath != "" {
		if cfg, err := LoadConfig(envPath); err == nil {
			return cfg
		}
	}

	for _, path := range []string{"config.json", "./config/config.json", "/etc/scd/config.json"} {
		if abs, err := filepath.Abs(path); err == nil {
			if cfg, err := LoadConfig(abs); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "memory", "badger", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest batch_size must be > 0")
	}
	return nil
}
