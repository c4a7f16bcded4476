package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// TestLoadAppliesDefaults verifies defaults fill everything but the URL.
func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "webhook:\n  url: https://hooks.example.com/print\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 10, cfg.Webhook.TimeoutSeconds)
	require.Equal(t, 64, cfg.Webhook.QueueDepth)
	require.Equal(t, 4, cfg.Webhook.Workers)
	require.Contains(t, cfg.Webhook.UserAgent, "printpulse/")
	require.False(t, cfg.Monitor.Enabled)
	require.Equal(t, 5, cfg.Monitor.PollIntervalSeconds)
	require.Equal(t, "deliveries", cfg.History.Table)
	require.True(t, cfg.Logging.Development)
}

// TestLoadOverridesFromFile checks file values win over defaults.
func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
webhook:
  url: http://localhost:8000/hook
  timeout_seconds: 5
  workers: 2
monitor:
  enabled: true
  poll_interval_seconds: 2
history:
  dsn: postgres://localhost/printpulse
logging:
  development: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http://localhost:8000/hook", cfg.Webhook.URL)
	require.Equal(t, 5, cfg.Webhook.TimeoutSeconds)
	require.Equal(t, 2, cfg.Webhook.Workers)
	require.True(t, cfg.Monitor.Enabled)
	require.Equal(t, "postgres://localhost/printpulse", cfg.History.DSN)
	require.False(t, cfg.Logging.Development)
}

// TestLoadFromEnvironmentOnly verifies a deployment with no config file can
// supply the URL and DSN purely through environment variables.
func TestLoadFromEnvironmentOnly(t *testing.T) {
	t.Setenv("PRINTPULSE_WEBHOOK_URL", "https://hooks.example.com/print")
	t.Setenv("PRINTPULSE_HISTORY_DSN", "postgres://localhost/printpulse")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://hooks.example.com/print", cfg.Webhook.URL)
	require.Equal(t, "postgres://localhost/printpulse", cfg.History.DSN)
	require.Equal(t, 8080, cfg.Server.Port)
}

// TestLoadRequiresWebhookURL asserts the one mandatory setting.
func TestLoadRequiresWebhookURL(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8080\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "webhook.url is required")
}

// TestValidateRejectsBadValues walks the validation rules.
func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080},
			Webhook: WebhookConfig{
				URL:            "https://hooks.example.com/print",
				TimeoutSeconds: 10,
				QueueDepth:     64,
				Workers:        4,
			},
			Monitor: MonitorConfig{PollIntervalSeconds: 5},
		}
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Webhook.URL = "ftp://example.com/hook"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Webhook.TimeoutSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Monitor.Enabled = true
	cfg.Monitor.PollIntervalSeconds = 0
	require.Error(t, cfg.Validate())

	require.NoError(t, base().Validate())
}

// TestDurationHelpers pins the second-to-duration conversions.
func TestDurationHelpers(t *testing.T) {
	cfg := Config{
		Webhook: WebhookConfig{TimeoutSeconds: 7},
		Monitor: MonitorConfig{PollIntervalSeconds: 3},
	}
	require.Equal(t, "7s", cfg.Webhook.Timeout().String())
	require.Equal(t, "3s", cfg.Monitor.PollInterval().String())
}
