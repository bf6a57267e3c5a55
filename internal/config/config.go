package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shift/web-spec/internal/result"
	"github.com/shift/web-spec/internal/webhook"
)

// Config is the top-level configuration structure.
type Config struct {
	Backend       BackendConfig      `yaml:"backend"`
	Batch         BatchConfig        `yaml:"batch"`
	Compare       CompareConfig      `yaml:"compare"`
	Webhook       WebhookConfig      `yaml:"webhook"`
	Alerts        webhook.Thresholds `yaml:"alerts"`
	DefaultFormat string             `yaml:"default_format"`
	LogLevel      string             `yaml:"log_level"`
}

type BackendConfig struct {
	// Type selects the automation backend. Only "cdp" is supported.
	Type string `yaml:"type"`
	// URL is the DevTools endpoint, http or ws.
	URL string `yaml:"url"`
	// Timeout bounds a single feature run. Zero means no limit.
	Timeout string `yaml:"timeout"`
}

type BatchConfig struct {
	Workers           int    `yaml:"workers"`
	ContinueOnFailure bool   `yaml:"continue_on_failure"`
	UnitTimeout       string `yaml:"unit_timeout"`
}

type CompareConfig struct {
	TolerancePercent float64 `yaml:"tolerance_percent"`
}

type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Events  []string          `yaml:"events"`
	Headers map[string]string `yaml:"headers"`
	Retries int               `yaml:"retries"`
}

// Validate checks that required fields are coherent.
func (c *Config) Validate() error {
	if c.Backend.Type != "cdp" {
		return fmt.Errorf("backend.type %q is not supported (only \"cdp\")", c.Backend.Type)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if c.Compare.TolerancePercent < 0 {
		return fmt.Errorf("compare.tolerance_percent must not be negative")
	}
	if !result.ValidFormat(c.DefaultFormat) {
		return fmt.Errorf("default_format %q is not one of text, json, yaml, tap, html", c.DefaultFormat)
	}
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	if _, err := c.UnitTimeout(); err != nil {
		return err
	}
	return nil
}

// RunTimeout parses backend.timeout. Empty means zero.
func (c *Config) RunTimeout() (time.Duration, error) {
	return parseTimeout("backend.timeout", c.Backend.Timeout)
}

// UnitTimeout parses batch.unit_timeout. Empty means zero.
func (c *Config) UnitTimeout() (time.Duration, error) {
	return parseTimeout("batch.unit_timeout", c.Batch.UnitTimeout)
}

func parseTimeout(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// Notifier builds the webhook notifier from the config, nil when no
// webhook URL is set.
func (c *Config) Notifier() *webhook.Notifier {
	if c.Webhook.URL == "" {
		return nil
	}
	events := make([]webhook.Event, 0, len(c.Webhook.Events))
	for _, e := range c.Webhook.Events {
		events = append(events, webhook.Event(e))
	}
	return &webhook.Notifier{
		URL:     c.Webhook.URL,
		Events:  events,
		Headers: c.Webhook.Headers,
		Retries: c.Webhook.Retries,
	}
}

// Load resolves config from project → user → defaults.
func Load() (*Config, error) {
	cfg := Defaults()

	// user-level config
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".webspec", "config.yaml")
		if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// project-level config (highest priority)
	projectPath := filepath.Join(".webspec", "config.yaml")
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, dst)
}

// Defaults returns the stock configuration.
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			Type: "cdp",
			URL:  "http://127.0.0.1:9222",
		},
		Batch: BatchConfig{
			Workers:           1,
			ContinueOnFailure: false,
		},
		Compare: CompareConfig{
			TolerancePercent: 10,
		},
		Alerts:        webhook.DefaultThresholds(),
		DefaultFormat: result.FormatText,
		LogLevel:      "info",
	}
}
