// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

// Package config provides centralized configuration for ChurnGuard.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Risk      RiskConfig      `koanf:"risk"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	CRM       CRMConfig       `koanf:"crm"`
}

// ServerConfig holds HTTP server settings.
//
// Environment variables: HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment variables: DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LoggingConfig holds log output settings.
//
// Environment variables: LOG_LEVEL, LOG_FORMAT, LOG_CALLER.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RiskConfig holds the classification thresholds. The defaults are the
// production cut-offs; override only with customer-success sign-off since
// historical assessments written under old thresholds are never recomputed.
type RiskConfig struct {
	RedemptionsThreshold           float64 `koanf:"redemptions_threshold"`
	EngagementSubsThreshold        float64 `koanf:"engagement_subs_threshold"`
	EngagementRedemptionsThreshold float64 `koanf:"engagement_redemptions_threshold"`
	ActivitySubsThreshold          float64 `koanf:"activity_subs_threshold"`
	SpendDropThreshold             float64 `koanf:"spend_drop_threshold"`
	RedemptionsDropThreshold       float64 `koanf:"redemptions_drop_threshold"`
}

// SchedulerConfig holds the run cadences for the risk scheduler.
type SchedulerConfig struct {
	// Enabled controls whether the scheduler service runs at all.
	Enabled bool `koanf:"enabled"`

	// TrendingInterval is how often the open month is recomputed and
	// re-assessed. Default: 24h.
	TrendingInterval time.Duration `koanf:"trending_interval"`

	// FinalizeCheckInterval is how often the finalizer sweep looks for
	// closed months missing a historical assessment. Default: 1h.
	FinalizeCheckInterval time.Duration `koanf:"finalize_check_interval"`

	// RunTimeout bounds a single trending or finalizer run.
	RunTimeout time.Duration `koanf:"run_timeout"`
}

// CRMConfig holds settings for the CRM risk-summary push.
type CRMConfig struct {
	Enabled bool `koanf:"enabled"`

	// EndpointURL receives risk summary batches as JSON POSTs.
	EndpointURL string `koanf:"endpoint_url"`

	// APIKey is sent as a bearer token.
	APIKey string `koanf:"api_key"`

	// SyncInterval is how often changed summaries are pushed. Default: 15m.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// BatchSize caps summaries per request. Default: 100.
	BatchSize int `koanf:"batch_size"`

	// RequestsPerSecond rate-limits outbound pushes. Default: 4.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Timeout bounds a single push request. Default: 30s.
	Timeout time.Duration `koanf:"timeout"`
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRisk(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return c.validateCRM()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database threads must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateRisk() error {
	thresholds := map[string]float64{
		"redemptions_threshold":            c.Risk.RedemptionsThreshold,
		"engagement_subs_threshold":        c.Risk.EngagementSubsThreshold,
		"engagement_redemptions_threshold": c.Risk.EngagementRedemptionsThreshold,
		"activity_subs_threshold":          c.Risk.ActivitySubsThreshold,
	}
	for name, v := range thresholds {
		if v <= 0 {
			return fmt.Errorf("risk %s must be positive, got %v", name, v)
		}
	}

	drops := map[string]float64{
		"spend_drop_threshold":       c.Risk.SpendDropThreshold,
		"redemptions_drop_threshold": c.Risk.RedemptionsDropThreshold,
	}
	for name, v := range drops {
		if v <= 0 || v > 1 {
			return fmt.Errorf("risk %s must be in (0, 1], got %v", name, v)
		}
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if c.Scheduler.TrendingInterval <= 0 {
		return fmt.Errorf("scheduler trending_interval must be positive, got %v", c.Scheduler.TrendingInterval)
	}
	if c.Scheduler.FinalizeCheckInterval <= 0 {
		return fmt.Errorf("scheduler finalize_check_interval must be positive, got %v", c.Scheduler.FinalizeCheckInterval)
	}
	return nil
}

func (c *Config) validateCRM() error {
	if !c.CRM.Enabled {
		return nil
	}
	if c.CRM.EndpointURL == "" {
		return fmt.Errorf("crm endpoint_url is required when crm sync is enabled")
	}
	u, err := url.Parse(c.CRM.EndpointURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("crm endpoint_url must be a valid http(s) URL, got %q", c.CRM.EndpointURL)
	}
	if c.CRM.BatchSize <= 0 {
		return fmt.Errorf("crm batch_size must be positive, got %d", c.CRM.BatchSize)
	}
	if c.CRM.RequestsPerSecond <= 0 {
		return fmt.Errorf("crm requests_per_second must be positive, got %v", c.CRM.RequestsPerSecond)
	}
	return nil
}
