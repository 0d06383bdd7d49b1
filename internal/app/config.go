package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/gatherpoint/gatherpoint/internal/database"
	"github.com/gatherpoint/gatherpoint/pkg/mail"
)

// Config represents the runtime configuration for the GatherPoint reminder service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Email      EmailConfig      `mapstructure:"email"`
	Reminders  ReminderConfig   `mapstructure:"reminders"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Options  map[string]string `mapstructure:"options"`
}

// StoreConfig converts the section into the database package's config.
func (c DatabaseConfig) StoreConfig() database.Config {
	return database.Config{
		Driver:   c.Driver,
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Options:  c.Options,
	}
}

// EmailConfig captures outbound email settings. Provider selects the
// transport: "smtp" or "ses".
type EmailConfig struct {
	Provider string     `mapstructure:"provider"`
	SMTP     SMTPConfig `mapstructure:"smtp"`
	SES      SESConfig  `mapstructure:"ses"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SESConfig defines Amazon SES transport settings.
type SESConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

// SMTPSettings converts the section into the mail package's settings.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		FromName: c.SMTP.FromName,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// SESSettings converts the section into the mail package's settings.
func (c EmailConfig) SESSettings() mail.SESSettings {
	return mail.SESSettings{
		Enabled:  c.SES.Enabled,
		Region:   c.SES.Region,
		From:     c.SES.From,
		FromName: c.SES.FromName,
	}
}

// ReminderConfig drives the generator and the confirmation flow.
type ReminderConfig struct {
	// Window is how far ahead the generator looks for candidate meetings.
	Window time.Duration `mapstructure:"window"`
	// TokenExpiry is the confirmation link lifetime.
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	// Schedule is the cron specification for generator runs.
	Schedule string `mapstructure:"schedule"`
	// CleanupSchedule is the cron specification for token retention.
	CleanupSchedule string `mapstructure:"cleanup_schedule"`
	// Retention is how long sent tokens and run records are kept.
	Retention time.Duration `mapstructure:"retention"`
	// BaseURL is the externally visible application URL embedded in links.
	BaseURL string `mapstructure:"base_url"`
	// DefaultTimezone ends the meeting -> group -> default fallback chain.
	DefaultTimezone string `mapstructure:"default_timezone"`
	// TriggerSecret guards the manual /internal/reminders endpoints.
	TriggerSecret string `mapstructure:"trigger_secret"`
}

// MonitoringConfig enables metrics endpoints.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("GATHERPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/gatherpoint.sqlite")

	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")
	v.SetDefault("email.ses.enabled", false)
	v.SetDefault("email.ses.region", "us-east-1")

	v.SetDefault("reminders.window", "48h")
	v.SetDefault("reminders.token_expiry", "168h") // 7 days
	v.SetDefault("reminders.schedule", "@every 8h")
	v.SetDefault("reminders.cleanup_schedule", "@daily")
	v.SetDefault("reminders.retention", "720h") // 30 days
	v.SetDefault("reminders.default_timezone", "UTC")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
