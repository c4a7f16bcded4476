// Package config loads and validates notifier configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/printpulse/printpulse/internal/version"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// WebhookConfig governs delivery to the configured endpoint.
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	QueueDepth     int    `mapstructure:"queue_depth"`
	Workers        int    `mapstructure:"workers"`
}

// MonitorConfig configures the device poll loop.
type MonitorConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds"`
}

// HistoryConfig controls the optional delivery-history store.
type HistoryConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRINTPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	// Registered empty so AutomaticEnv can satisfy them without a config file.
	v.SetDefault("webhook.url", "")
	v.SetDefault("history.dsn", "")
	v.SetDefault("webhook.timeout_seconds", 10)
	v.SetDefault("webhook.user_agent", "printpulse/"+version.Version)
	v.SetDefault("webhook.queue_depth", 64)
	v.SetDefault("webhook.workers", 4)
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.poll_interval_seconds", 5)
	v.SetDefault("history.table", "deliveries")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required")
	}
	u, err := url.Parse(c.Webhook.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook.url must be a valid http(s) URL")
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		return fmt.Errorf("webhook.timeout_seconds must be > 0")
	}
	if c.Webhook.QueueDepth <= 0 {
		return fmt.Errorf("webhook.queue_depth must be > 0")
	}
	if c.Webhook.Workers <= 0 {
		return fmt.Errorf("webhook.workers must be > 0")
	}
	if c.Monitor.Enabled && c.Monitor.PollIntervalSeconds <= 0 {
		return fmt.Errorf("monitor.poll_interval_seconds must be > 0 when monitor is enabled")
	}
	return nil
}

// Timeout converts the webhook timeout into a duration.
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval converts the poll interval into a duration.
func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
