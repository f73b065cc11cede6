// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8487 {
		t.Errorf("server.port: expected 8487, got %d", cfg.Server.Port)
	}
	if cfg.Risk.RedemptionsThreshold != 10 {
		t.Errorf("risk.redemptions_threshold: expected 10, got %v", cfg.Risk.RedemptionsThreshold)
	}
	if cfg.Risk.SpendDropThreshold != 0.40 {
		t.Errorf("risk.spend_drop_threshold: expected 0.40, got %v", cfg.Risk.SpendDropThreshold)
	}
	if cfg.Scheduler.TrendingInterval != 24*time.Hour {
		t.Errorf("scheduler.trending_interval: expected 24h, got %v", cfg.Scheduler.TrendingInterval)
	}
	if cfg.CRM.Enabled {
		t.Error("crm.enabled: expected false by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("RISK_SPEND_DROP_THRESHOLD", "0.25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("server.port: expected 9000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("database.path: expected /tmp/test.duckdb, got %q", cfg.Database.Path)
	}
	if cfg.Risk.SpendDropThreshold != 0.25 {
		t.Errorf("risk.spend_drop_threshold: expected 0.25, got %v", cfg.Risk.SpendDropThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level: expected debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9100\nrisk:\n  redemptions_threshold: 20\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("server.port: expected 9100, got %d", cfg.Server.Port)
	}
	if cfg.Risk.RedemptionsThreshold != 20 {
		t.Errorf("risk.redemptions_threshold: expected 20, got %v", cfg.Risk.RedemptionsThreshold)
	}
	// Untouched settings keep their defaults.
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("database.max_memory: expected 2GB, got %q", cfg.Database.MaxMemory)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero redemptions threshold", func(c *Config) { c.Risk.RedemptionsThreshold = 0 }, true},
		{"drop threshold above one", func(c *Config) { c.Risk.SpendDropThreshold = 1.5 }, true},
		{"crm enabled without endpoint", func(c *Config) { c.CRM.Enabled = true }, true},
		{
			"crm enabled with endpoint",
			func(c *Config) {
				c.CRM.Enabled = true
				c.CRM.EndpointURL = "https://crm.example.com/hooks/risk"
			},
			false,
		},
		{
			"crm endpoint with bad scheme",
			func(c *Config) {
				c.CRM.Enabled = true
				c.CRM.EndpointURL = "ftp://crm.example.com"
			},
			true,
		},
		{"scheduler disabled skips interval checks", func(c *Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.TrendingInterval = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"RISK_REDEMPTIONS_THRESHOLD", "risk.redemptions_threshold"},
		{"CRM_ENDPOINT_URL", "crm.endpoint_url"},
		{"PATH", ""},
		{"UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envTransformFunc(tt.in); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
