// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/churnguard/config.yaml",
	"/etc/churnguard/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied before file and env
// overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8487,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/churnguard.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Risk: RiskConfig{
			RedemptionsThreshold:           10,
			EngagementSubsThreshold:        300,
			EngagementRedemptionsThreshold: 35,
			ActivitySubsThreshold:          300,
			SpendDropThreshold:             0.40,
			RedemptionsDropThreshold:       0.50,
		},
		Scheduler: SchedulerConfig{
			Enabled:               true,
			TrendingInterval:      24 * time.Hour,
			FinalizeCheckInterval: time.Hour,
			RunTimeout:            30 * time.Minute,
		},
		CRM: CRMConfig{
			Enabled:           false, // opt-in
			SyncInterval:      15 * time.Minute,
			BatchSize:         100,
			RequestsPerSecond: 4,
			Timeout:           30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables (highest priority), then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unknown variables are dropped so unrelated environment noise never lands
// in the config tree.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - RISK_SPEND_DROP_THRESHOLD -> risk.spend_drop_threshold
//   - CRM_ENDPOINT_URL -> crm.endpoint_url
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Risk thresholds
		"risk_redemptions_threshold":            "risk.redemptions_threshold",
		"risk_engagement_subs_threshold":        "risk.engagement_subs_threshold",
		"risk_engagement_redemptions_threshold": "risk.engagement_redemptions_threshold",
		"risk_activity_subs_threshold":          "risk.activity_subs_threshold",
		"risk_spend_drop_threshold":             "risk.spend_drop_threshold",
		"risk_redemptions_drop_threshold":       "risk.redemptions_drop_threshold",

		// Scheduler
		"scheduler_enabled":                 "scheduler.enabled",
		"scheduler_trending_interval":       "scheduler.trending_interval",
		"scheduler_finalize_check_interval": "scheduler.finalize_check_interval",
		"scheduler_run_timeout":             "scheduler.run_timeout",

		// CRM sync
		"crm_enabled":             "crm.enabled",
		"crm_endpoint_url":        "crm.endpoint_url",
		"crm_api_key":             "crm.api_key",
		"crm_sync_interval":       "crm.sync_interval",
		"crm_batch_size":          "crm.batch_size",
		"crm_requests_per_second": "crm.requests_per_second",
		"crm_timeout":             "crm.timeout",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}
