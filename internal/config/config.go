package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"news_ticker/internal/domain"
)

const (
	EnvProduction = "production"

	// writeTimeoutMargin is added to sync.cycle_timeout for the default
	// http.write_timeout.
	writeTimeoutMargin = 30 * time.Second
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")
	ErrInvalidDatabaseURL = errors.New("DATABASE_URL must be a postgres:// or postgresql:// URL")
)

type Config struct {
	Env      string              `yaml:"env"`
	Database DatabaseConfig      `yaml:"database"`
	HTTP     HTTPConfig          `yaml:"http"`
	RabbitMQ RabbitMQConfig      `yaml:"rabbitmq"`
	Fetch    FetchConfig         `yaml:"fetch"`
	Sync     SyncConfig          `yaml:"sync"`
	Sources  []domain.FeedSource `yaml:"sources"`
	LogLevel string              `yaml:"log_level"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	StaticDir       string        `yaml:"static_dir"`
}

func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// RabbitMQConfig is optional; an empty URL disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Retry     RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type SyncConfig struct {
	Interval     time.Duration `yaml:"interval"`
	CycleTimeout time.Duration `yaml:"cycle_timeout"`
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads .env, then the YAML file at path when it exists, then
// environment overrides. A missing file is not an error; a missing
// database URL is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.HTTP.Host == "" {
		c.HTTP.Host = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "news_ticker"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "news_items"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "news_items"
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "NewsTicker/1.0"
	}
	if c.Fetch.Retry.MaxAttempts == 0 {
		c.Fetch.Retry.MaxAttempts = 3
	}
	if c.Fetch.Retry.InitialBackoff == 0 {
		c.Fetch.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Fetch.Retry.MaxBackoff == 0 {
		c.Fetch.Retry.MaxBackoff = 10 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.CycleTimeout == 0 {
		c.Sync.CycleTimeout = c.Sync.Interval
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = c.Sync.CycleTimeout + writeTimeoutMargin
	}
	if len(c.Sources) == 0 {
		c.Sources = domain.DefaultSources()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	// migrations need the URL form; key=value DSNs are rejected here
	if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return ErrInvalidDatabaseURL
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if !domain.ValidSourceTag(s.Tag) {
			return fmt.Errorf("invalid source tag %q", s.Tag)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q has no url", s.Tag)
		}
		if _, ok := seen[s.Tag]; ok {
			return fmt.Errorf("duplicate source tag %q", s.Tag)
		}
		seen[s.Tag] = struct{}{}
	}

	if c.Sync.Interval < time.Second {
		return fmt.Errorf("sync.interval must be at least 1s")
	}
	if c.HTTP.WriteTimeout <= c.Sync.CycleTimeout {
		return fmt.Errorf("http.write_timeout (%s) must exceed sync.cycle_timeout (%s)",
			c.HTTP.WriteTimeout, c.Sync.CycleTimeout)
	}
	return nil
}
