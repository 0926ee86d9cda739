// Package config handles loading and validating the cnstrc CLI and mock
// server configuration from YAML files with environment variable
// substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
	"github.com/donaldgifford/constructorio-go/pkg/session"
)

// Identity backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Client        ClientConfig        `yaml:"client"`
	Identity      IdentityConfig      `yaml:"identity"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
	MockServer    ServerConfig        `yaml:"mock_server"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ClientConfig mirrors constructorio.Config plus beacon queue sizing.
type ClientConfig struct {
	APIKey                  string                   `yaml:"api_key"`
	ServiceURL              string                   `yaml:"service_url"`
	ServiceScheme           string                   `yaml:"service_scheme"`
	ServicePort             int                      `yaml:"service_port"`
	DefaultItemSection      string                   `yaml:"default_item_section"`
	Timeout                 time.Duration            `yaml:"timeout"`
	TestCells               []constructorio.TestCell `yaml:"test_cells"`
	Segments                []string                 `yaml:"segments"`
	AutocompleteResultCount map[string]int           `yaml:"autocomplete_result_count"`
	SessionTimeout          time.Duration            `yaml:"session_timeout"`
	BeaconWorkers           int                      `yaml:"beacon_workers"`
	BeaconQueueSize         int                      `yaml:"beacon_queue_size"`
}

// SDK returns the SDK configuration.
func (c *ClientConfig) SDK() constructorio.Config {
	return constructorio.Config{
		APIKey:                  c.APIKey,
		ServiceURL:              c.ServiceURL,
		ServiceScheme:           c.ServiceScheme,
		ServicePort:             c.ServicePort,
		DefaultItemSection:      c.DefaultItemSection,
		TestCells:               c.TestCells,
		Segments:                c.Segments,
		AutocompleteResultCount: c.AutocompleteResultCount,
		Timeout:                 c.Timeout,
	}
}

// IdentityConfig selects where the client id and session are persisted.
type IdentityConfig struct {
	Backend  string         `yaml:"backend"` // memory, file, redis, postgres
	File     FileConfig     `yaml:"file"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// FileConfig defines the identity file location.
type FileConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// Session returns the store settings.
func (r *RedisConfig) Session() session.RedisConfig {
	return session.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB, Key: r.Key}
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Key names the identity row, so several installs can share a table.
	Key string `yaml:"key"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// RateLimitConfig defines client-side rate limiting.
type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"` // 0 disables the daily cap
}

// NotificationsConfig defines host notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// TracingConfig toggles OpenTelemetry client spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ServerConfig defines the Echo HTTP settings of the mock server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// FixturesDir overrides the embedded response fixtures.
	FixturesDir string `yaml:"fixtures_dir"`
	// APIKey, when set, is the only key the mock accepts.
	APIKey string `yaml:"api_key"`
	// RecordLimit caps the beacons kept for /_mock/events.
	RecordLimit int `yaml:"record_limit"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied and no API
// key, for commands that run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyClientDefaults(&cfg.Client)
	applyIdentityDefaults(&cfg.Identity)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyServerDefaults(&cfg.MockServer)
	applyLoggingDefaults(&cfg.Logging)
}

func applyClientDefaults(c *ClientConfig) {
	if c.ServiceURL == "" {
		c.ServiceURL = constructorio.DefaultServiceURL
	}
	if c.ServiceScheme == "" {
		c.ServiceScheme = constructorio.DefaultServiceScheme
	}
	if c.DefaultItemSection == "" {
		c.DefaultItemSection = constructorio.DefaultItemSection
	}
	if c.Timeout == 0 {
		c.Timeout = constructorio.DefaultTimeout
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = session.DefaultTimeout
	}
	if c.BeaconWorkers == 0 {
		c.BeaconWorkers = 2
	}
	if c.BeaconQueueSize == 0 {
		c.BeaconQueueSize = 256
	}
}

func applyIdentityDefaults(i *IdentityConfig) {
	if i.Backend == "" {
		i.Backend = BackendFile
	}
	if i.File.Path == "" {
		i.File.Path = defaultIdentityPath()
	}
	if i.Redis.Key == "" {
		i.Redis.Key = session.DefaultRedisKey
	}
	if i.Database.Port == 0 {
		i.Database.Port = 5432
	}
	if i.Database.SSLMode == "" {
		i.Database.SSLMode = "disable"
	}
	if i.Database.Key == "" {
		i.Database.Key = session.DefaultIdentityKey
	}
}

func defaultIdentityPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cnstrc", "identity.json")
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 10.0
	}
	if r.Burst == 0 {
		r.Burst = 20
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8089
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.RecordLimit == 0 {
		s.RecordLimit = 1000
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Client.APIKey == "" {
		errs = append(errs, errors.New("client.api_key is required"))
	}
	if cfg.Client.SessionTimeout < 0 {
		errs = append(errs, errors.New("client.session_timeout must not be negative"))
	}
	if cfg.Client.BeaconWorkers < 0 || cfg.Client.BeaconQueueSize < 0 {
		errs = append(errs, errors.New("client.beacon_workers and client.beacon_queue_size must not be negative"))
	}

	switch cfg.Identity.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if cfg.Identity.Redis.Addr == "" {
			errs = append(errs, errors.New("identity.redis.addr is required when backend is redis"))
		}
	case BackendPostgres:
		if cfg.Identity.Database.Host == "" {
			errs = append(errs, errors.New("identity.database.host is required when backend is postgres"))
		}
		if cfg.Identity.Database.Name == "" {
			errs = append(errs, errors.New("identity.database.name is required when backend is postgres"))
		}
		if cfg.Identity.Database.User == "" {
			errs = append(errs, errors.New("identity.database.user is required when backend is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"identity.backend must be one of: memory, file, redis, postgres (got %q)",
			cfg.Identity.Backend,
		))
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.per_second must not be negative"))
	}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL == "" {
		errs = append(errs, errors.New("notifications.webhook.url is required when the webhook is enabled"))
	}
	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, errors.New("notifications.discord.webhook_url is required when discord is enabled"))
	}

	return errors.Join(errs...)
}

// ValidateSDK checks the client section with the SDK's own rules.
func (c *Config) ValidateSDK() error {
	sdk := c.Client.SDK()
	return sdk.Validate()
}
