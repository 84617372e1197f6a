// Package config loads LeafGuard settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// PathEnv names the environment variable pointing at a YAML config file.
	PathEnv = "LEAFGUARD_CONFIG"

	defaultPath    = "leafguard.yaml"
	defaultDotEnv  = ".env"
	defaultAPIURL  = "http://localhost:8000"
	defaultHost    = "127.0.0.1"
	defaultPort    = 8080
	defaultLevel   = "info"
	defaultMaxMB   = 10
	defaultUploads = 30
	defaultTTL     = 30 * time.Minute
)

// Config aggregates runtime configuration for the CLI and the dashboard.
type Config struct {
	// APIURL is the base URL of the prediction service.
	APIURL   string `yaml:"apiUrl" env:"LEAFGUARD_API_URL"`
	Host     string `yaml:"host" env:"LEAFGUARD_HOST"`
	Port     int    `yaml:"port" env:"LEAFGUARD_PORT"`
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL"`

	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DashboardConfig controls the web dashboard.
type DashboardConfig struct {
	MaxUploadMB      int           `yaml:"maxUploadMb" env:"LEAFGUARD_MAX_UPLOAD_MB"`
	UploadsPerMinute int           `yaml:"uploadsPerMinute" env:"LEAFGUARD_UPLOADS_PER_MINUTE"`
	SessionTTL       time.Duration `yaml:"sessionTtl" env:"LEAFGUARD_SESSION_TTL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:   defaultAPIURL,
		Host:     defaultHost,
		Port:     defaultPort,
		LogLevel: defaultLevel,
		Dashboard: DashboardConfig{
			MaxUploadMB:      defaultMaxMB,
			UploadsPerMinute: defaultUploads,
			SessionTTL:       defaultTTL,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// $LEAFGUARD_CONFIG or ./leafguard.yaml is used when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		if _, err := os.Stat(defaultPath); err == nil {
			path = defaultPath
		}
	}
	if path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(defaultDotEnv); err != nil {
		return nil, err
	}

	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(&cfg.Dashboard); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("apiUrl must be an http(s) URL, got %q", c.APIURL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Dashboard.MaxUploadMB <= 0 {
		return errors.New("dashboard.maxUploadMb must be positive")
	}
	if c.Dashboard.UploadsPerMinute < 0 {
		return errors.New("dashboard.uploadsPerMinute must not be negative")
	}
	if c.Dashboard.SessionTTL <= 0 {
		return errors.New("dashboard.sessionTtl must be positive")
	}
	return nil
}

// Addr returns the dashboard listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv exports variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
