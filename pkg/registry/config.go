package registry

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds asset registry connection parameters.
type Config struct {
	BaseURL          string `toml:"base_url"`
	AppID            string `toml:"app_id"`
	AuthToken        string `toml:"auth_token"`
	RootCollectionID string `toml:"root_collection_id"`
	Timeout          string `toml:"timeout"`
	BreakerFailures  int    `toml:"breaker_failures"`
	BreakerCooldown  string `toml:"breaker_cooldown"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL          string
	AppID            string
	AuthToken        string
	RootCollectionID string
	Timeout          string
	BreakerFailures  string
	BreakerCooldown  string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BreakerCooldownDuration returns BreakerCooldown as a time.Duration.
func (c *Config) BreakerCooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.BreakerCooldown)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.AppID != "" {
		c.AppID = overlay.AppID
	}
	if overlay.AuthToken != "" {
		c.AuthToken = overlay.AuthToken
	}
	if overlay.RootCollectionID != "" {
		c.RootCollectionID = overlay.RootCollectionID
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.BreakerFailures != 0 {
		c.BreakerFailures = overlay.BreakerFailures
	}
	if overlay.BreakerCooldown != "" {
		c.BreakerCooldown = overlay.BreakerCooldown
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://app.iconik.io/API/"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown == "" {
		c.BreakerCooldown = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.AppID != "" {
		if v := os.Getenv(env.AppID); v != "" {
			c.AppID = v
		}
	}
	if env.AuthToken != "" {
		if v := os.Getenv(env.AuthToken); v != "" {
			c.AuthToken = v
		}
	}
	if env.RootCollectionID != "" {
		if v := os.Getenv(env.RootCollectionID); v != "" {
			c.RootCollectionID = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.BreakerFailures != "" {
		if v := os.Getenv(env.BreakerFailures); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.BreakerFailures = n
			}
		}
	}
	if env.BreakerCooldown != "" {
		if v := os.Getenv(env.BreakerCooldown); v != "" {
			c.BreakerCooldown = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.AppID == "" {
		return fmt.Errorf("app_id required")
	}
	if _, err := uuid.Parse(c.AppID); err != nil {
		return fmt.Errorf("app_id must be a uuid: %w", err)
	}
	if c.AuthToken == "" {
		return fmt.Errorf("auth_token required")
	}
	if c.RootCollectionID != "" {
		if _, err := uuid.Parse(c.RootCollectionID); err != nil {
			return fmt.Errorf("root_collection_id must be a uuid: %w", err)
		}
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.BreakerFailures < 1 {
		return fmt.Errorf("breaker_failures must be positive")
	}
	if _, err := time.ParseDuration(c.BreakerCooldown); err != nil {
		return fmt.Errorf("invalid breaker_cooldown: %w", err)
	}
	return nil
}
