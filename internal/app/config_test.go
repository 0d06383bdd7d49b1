package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "smtp", cfg.Email.Provider)

	require.Equal(t, 48*time.Hour, cfg.Reminders.Window)
	require.Equal(t, 7*24*time.Hour, cfg.Reminders.TokenExpiry)
	require.Equal(t, "@every 8h", cfg.Reminders.Schedule)
	require.Equal(t, "@daily", cfg.Reminders.CleanupSchedule)
	require.Equal(t, 30*24*time.Hour, cfg.Reminders.Retention)
	require.Equal(t, "UTC", cfg.Reminders.DefaultTimezone)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9090
  log_level: debug
email:
  provider: ses
  ses:
    enabled: true
    region: eu-central-1
    from: reminders@gatherpoint.example.org
reminders:
  window: 24h
  token_expiry: 72h
  base_url: https://gatherpoint.example.org
  default_timezone: Europe/Berlin
  trigger_secret: hunter2
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "ses", cfg.Email.Provider)
	require.True(t, cfg.Email.SES.Enabled)
	require.Equal(t, "eu-central-1", cfg.Email.SES.Region)

	require.Equal(t, 24*time.Hour, cfg.Reminders.Window)
	require.Equal(t, 72*time.Hour, cfg.Reminders.TokenExpiry)
	require.Equal(t, "https://gatherpoint.example.org", cfg.Reminders.BaseURL)
	require.Equal(t, "Europe/Berlin", cfg.Reminders.DefaultTimezone)
	require.Equal(t, "hunter2", cfg.Reminders.TriggerSecret)

	settings := cfg.Email.SESSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "reminders@gatherpoint.example.org", settings.From)
}

func TestLoadConfigHonoursEnvironment(t *testing.T) {
	t.Setenv("GATHERPOINT_SERVER_PORT", "7070")
	t.Setenv("GATHERPOINT_REMINDERS_WINDOW", "12h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 12*time.Hour, cfg.Reminders.Window)
}
