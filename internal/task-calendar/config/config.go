// Package config loads the service configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerAddr       = ":8080"
	DefaultBackendAPI       = "http://localhost:8000"
	DefaultBackendTimeout   = 15
	DefaultDBType           = "sqlite"
	DefaultDBDSN            = "task_calendar.db"
	DefaultKafkaBrokers     = "localhost:9092"
	DefaultLogChangeTopic   = "task_log_changes"
	DefaultLogChangeGroupID = "task_calendar_group"
	DefaultRefreshCron      = "*/5 * * * *"
	DefaultLogLevel         = "info"
)

type Config struct {
	ServerAddr string `yaml:"server_addr"`

	BackendAPI   string `yaml:"backend_api"`
	BackendToken string `yaml:"backend_token"`
	// BackendTimeout is in seconds.
	BackendTimeout int `yaml:"backend_timeout"`

	DBType string `yaml:"db_type"`
	DBDSN  string `yaml:"db_dsn"`

	// ChangeFeed turns the Kafka log change feed on. Without it writes are only
	// applied locally.
	ChangeFeed       bool     `yaml:"change_feed"`
	KafkaBrokers     []string `yaml:"kafka_brokers"`
	LogChangeTopic   string   `yaml:"log_change_topic"`
	LogChangeGroupID string   `yaml:"log_change_group_id"`
	ClientID         string   `yaml:"client_id"`

	RefreshCron string `yaml:"refresh_cron"`
	LogLevel    string `yaml:"log_level"`
}

func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults. A missing client id gets a fresh
// uuid and a missing consumer group is derived from the client id.
func (c *Config) Normalize() {
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.BackendAPI == "" {
		c.BackendAPI = DefaultBackendAPI
	}
	c.BackendAPI = strings.TrimRight(c.BackendAPI, "/")
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = DefaultBackendTimeout
	}
	if c.DBType == "" {
		c.DBType = DefaultDBType
	}
	if c.DBDSN == "" && c.DBType == DefaultDBType {
		c.DBDSN = DefaultDBDSN
	}
	if len(c.KafkaBrokers) == 0 {
		c.KafkaBrokers = splitList(DefaultKafkaBrokers)
	}
	if c.LogChangeTopic == "" {
		c.LogChangeTopic = DefaultLogChangeTopic
	}
	c.ClientID = strings.TrimSpace(c.ClientID)
	if c.ClientID == "" {
		c.ClientID = uuid.NewString()
	}
	// each client reads the whole feed, so clients must not share a group
	if c.LogChangeGroupID == "" {
		c.LogChangeGroupID = DefaultLogChangeGroupID + "-" + c.ClientID
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("db_type must be sqlite or mysql, got %q", c.DBType)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh_cron %q: %w", c.RefreshCron, err)
	}
	if c.ChangeFeed && len(c.KafkaBrokers) == 0 {
		return errors.New("change_feed requires at least one kafka broker")
	}
	return nil
}

// Load reads path (a missing file yields defaults), applies environment
// overrides, normalizes and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("SERVER_ADDR"); v != "" {
		c.ServerAddr = v
	}
	if v := getenv("BACKEND_API"); v != "" {
		c.BackendAPI = v
	}
	if v := getenv("BACKEND_TOKEN"); v != "" {
		c.BackendToken = v
	}
	if v := getenv("DB_TYPE"); v != "" {
		c.DBType = v
	}
	if v := getenv("DB_DSN"); v != "" {
		c.DBDSN = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
		c.ChangeFeed = true
	}
	if v := getenv("LOG_CHANGE_TOPIC"); v != "" {
		c.LogChangeTopic = v
	}
	if v := getenv("LOG_CHANGE_GROUP_ID"); v != "" {
		c.LogChangeGroupID = v
	}
	if v := getenv("CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := getenv("REFRESH_CRON"); v != "" {
		c.RefreshCron = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
