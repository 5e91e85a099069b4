package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models homesync.yml.
type Config struct {
	Server struct {
		BaseURL        string `yaml:"base_url"`
		Token          string `yaml:"token"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"server"`
	User struct {
		ID int `yaml:"id"`
	} `yaml:"user"`
	Poll struct {
		ActivityIntervalMS      int `yaml:"activity_interval_ms"`
		NotificationsIntervalMS int `yaml:"notifications_interval_ms"`
		ActivityLimit           int `yaml:"activity_limit"`
	} `yaml:"poll"`
	Transient struct {
		RevertWindowMS int `yaml:"revert_window_ms"`
		ReportNudgeMS  int `yaml:"report_nudge_ms"`
	} `yaml:"transient"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config.server.base_url is required")
	}
	if c.User.ID <= 0 {
		return fmt.Errorf("config.user.id must be a positive user id")
	}
	if c.Poll.ActivityIntervalMS <= 0 {
		return fmt.Errorf("config.poll.activity_interval_ms must be positive")
	}
	if c.Poll.NotificationsIntervalMS <= 0 {
		return fmt.Errorf("config.poll.notifications_interval_ms must be positive")
	}
	if c.Poll.ActivityLimit <= 0 {
		return fmt.Errorf("config.poll.activity_limit must be positive")
	}
	if c.Transient.RevertWindowMS <= 0 {
		return fmt.Errorf("config.transient.revert_window_ms must be positive")
	}
	if c.Transient.ReportNudgeMS < 0 {
		return fmt.Errorf("config.transient.report_nudge_ms must not be negative")
	}
	return nil
}

// Durations derived from the millisecond fields.

func (c *Config) ActivityInterval() time.Duration {
	return time.Duration(c.Poll.ActivityIntervalMS) * time.Millisecond
}

func (c *Config) NotificationsInterval() time.Duration {
	return time.Duration(c.Poll.NotificationsIntervalMS) * time.Millisecond
}

func (c *Config) RevertWindow() time.Duration {
	return time.Duration(c.Transient.RevertWindowMS) * time.Millisecond
}

func (c *Config) ReportNudge() time.Duration {
	return time.Duration(c.Transient.ReportNudgeMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "homesync.yml")
}

// Load reads and validates config from workspace, falling back to defaults
// when the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Fields the file
// omits keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	cfg.Server.BaseURL = "http://127.0.0.1:8080"
	cfg.Server.TimeoutSeconds = 10
	cfg.User.ID = 101
	cfg.Poll.ActivityIntervalMS = 5000
	cfg.Poll.NotificationsIntervalMS = 10000
	cfg.Poll.ActivityLimit = 5
	cfg.Transient.RevertWindowMS = 3000
	cfg.Transient.ReportNudgeMS = 1000
	return &cfg
}

// GenerateDefault returns default config YAML suitable for writing a fresh
// homesync.yml.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `server:
  base_url: http://127.0.0.1:8080
  timeout_seconds: 10

user:
  id: 101

poll:
  activity_interval_ms: 5000
  notifications_interval_ms: 10000
  activity_limit: 5

transient:
  revert_window_ms: 3000
  report_nudge_ms: 1000
`
