// Package config loads reelsync configuration from config.toml, an optional
// environment overlay, and REELSYNC_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/reelsync/pkg/database"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/keylock"
	"github.com/JaimeStill/reelsync/pkg/registry"
	"github.com/JaimeStill/reelsync/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvReelsyncEnv             = "REELSYNC_ENV"
	EnvReelsyncShutdownTimeout = "REELSYNC_SHUTDOWN_TIMEOUT"
	EnvReelsyncVersion         = "REELSYNC_VERSION"
)

var databaseEnv = &database.Env{
	URI:             "REELSYNC_DB",
	Host:            "REELSYNC_DB_HOST",
	Port:            "REELSYNC_DB_PORT",
	Name:            "REELSYNC_DB_NAME",
	User:            "REELSYNC_DB_USER",
	Password:        "REELSYNC_DB_PASSWORD",
	SSLMode:         "REELSYNC_DB_SSL_MODE",
	MaxOpenConns:    "REELSYNC_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "REELSYNC_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "REELSYNC_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "REELSYNC_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "REELSYNC_STORAGE_CONTAINER_NAME",
	ConnectionString: "REELSYNC_STORAGE_CONNECTION_STRING",
	ServiceURL:       "REELSYNC_STORAGE_SERVICE_URL",
}

var registryEnv = &registry.Env{
	BaseURL:          "REELSYNC_REGISTRY_BASE_URL",
	AppID:            "REELSYNC_REGISTRY_APP_ID",
	AuthToken:        "REELSYNC_REGISTRY_AUTH_TOKEN",
	RootCollectionID: "REELSYNC_REGISTRY_ROOT_COLLECTION_ID",
	Timeout:          "REELSYNC_REGISTRY_TIMEOUT",
	BreakerFailures:  "REELSYNC_REGISTRY_BREAKER_FAILURES",
	BreakerCooldown:  "REELSYNC_REGISTRY_BREAKER_COOLDOWN",
}

var brokerEnv = &events.Env{
	URL:           "REELSYNC_BROKER_URL",
	SubjectPrefix: "REELSYNC_BROKER_SUBJECT_PREFIX",
	Name:          "REELSYNC_BROKER_NAME",
}

var locksEnv = &keylock.Env{
	Backend:   "REELSYNC_LOCKS_BACKEND",
	RedisAddr: "REELSYNC_LOCKS_REDIS_ADDR",
	Prefix:    "REELSYNC_LOCKS_PREFIX",
	TTL:       "REELSYNC_LOCKS_TTL",
	Wait:      "REELSYNC_LOCKS_WAIT",
}

// Config is the root configuration for the reelsync service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Registry        registry.Config `toml:"registry"`
	Broker          events.Config   `toml:"broker"`
	Locks           keylock.Config  `toml:"locks"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the REELSYNC_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvReelsyncEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without a config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Registry.Merge(&overlay.Registry)
	c.Broker.Merge(&overlay.Broker)
	c.Locks.Merge(&overlay.Locks)
}

// Finalize applies defaults, environment overrides, and validation to every
// section. The first failing section is reported by name.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Registry.Finalize(registryEnv); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := c.Broker.Finalize(brokerEnv); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if err := c.Locks.Finalize(locksEnv); err != nil {
		return fmt.Errorf("locks: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvReelsyncShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvReelsyncVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvReelsyncEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
