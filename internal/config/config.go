// Package config loads the YAML configuration file and applies environment
// overrides. The API credential is not configuration; it lives in the store.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Insight  InsightConfig  `yaml:"insight"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// YouTubeConfig configures the Data API client.
type YouTubeConfig struct {
	HTTPTimeout string `yaml:"http_timeout"`
}

// ParseHTTPTimeout returns the API client timeout as time.Duration.
func (y YouTubeConfig) ParseHTTPTimeout() time.Duration {
	d, err := time.ParseDuration(y.HTTPTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FetchConfig controls how much a refresh pulls and how wide the comment
// fan-out runs.
type FetchConfig struct {
	VideoCount     int `yaml:"video_count"`
	CommentCount   int `yaml:"comment_count"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// InsightConfig configures the aggregation views.
type InsightConfig struct {
	// ExcludeAuthor filters one handle out of both views. Empty means
	// "the cached channel's own handle".
	ExcludeAuthor string `yaml:"exclude_author"`
}

// ScheduleConfig configures the watch daemon.
type ScheduleConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
}

// ParseRefreshInterval returns the refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WebhookConfig configures the refresh-summary webhook.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./ytmate.db"},
		YouTube:  YouTubeConfig{HTTPTimeout: "30s"},
		Fetch: FetchConfig{
			VideoCount:     20,
			CommentCount:   50,
			MaxConcurrency: 8,
		},
		Schedule: ScheduleConfig{RefreshInterval: "30m"},
		Server:   ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YTMATE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("YTMATE_WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
		cfg.Webhook.Enabled = true
	}
	if v := os.Getenv("YTMATE_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
}
