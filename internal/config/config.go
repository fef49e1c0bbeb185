// Package config loads and validates the application configuration file.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tradeview-lab/tradeview/internal/monitor"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultDBPath       = "tradeview.db"
	defaultPollInterval = time.Minute
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen" validate:"required,hostname_port"`
}

// StoreConfig configures the configuration store.
type StoreConfig struct {
	// DBPath is the DuckDB file; ":memory:" keeps everything ephemeral.
	DBPath string `yaml:"db_path" validate:"required"`
}

// TelegramConfig configures alert delivery. Leave the token empty to fall
// back to log-only alerts.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// MonitorConfig configures the polling loop.
type MonitorConfig struct {
	PollInterval time.Duration        `yaml:"poll_interval"`
	Telegram     TelegramConfig       `yaml:"telegram"`
	Watches      []monitor.WatchEntry `yaml:"watches" validate:"dive"`
}

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// Load reads a YAML config file, expands ${ENV_VAR} references, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfigFile, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse decodes and validates raw YAML config bytes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfigFile, "failed to parse config file", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}

	if c.Store.DBPath == "" {
		c.Store.DBPath = defaultDBPath
	}

	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = defaultPollInterval
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfigFile, "invalid config", err)
	}

	if c.Monitor.Telegram.Token != "" && c.Monitor.Telegram.ChatID == 0 {
		return errors.New(errors.ErrCodeInvalidConfigFile, "telegram chat_id is required when a token is set")
	}

	return nil
}
