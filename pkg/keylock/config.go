package keylock

import (
	"fmt"
	"os"
	"time"
)

const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Config selects and tunes the lock backend.
type Config struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
	TTL       string `toml:"ttl"`
	Wait      string `toml:"wait"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend   string
	RedisAddr string
	Prefix    string
	TTL       string
	Wait      string
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// WaitDuration returns Wait as a time.Duration.
func (c *Config) WaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.Wait)
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
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.Wait != "" {
		c.Wait = overlay.Wait
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.Prefix == "" {
		c.Prefix = "reelsync:lock:"
	}
	if c.TTL == "" {
		c.TTL = "2m"
	}
	if c.Wait == "" {
		c.Wait = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.RedisAddr != "" {
		if v := os.Getenv(env.RedisAddr); v != "" {
			c.RedisAddr = v
		}
	}
	if env.Prefix != "" {
		if v := os.Getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
	if env.Wait != "" {
		if v := os.Getenv(env.Wait); v != "" {
			c.Wait = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr required for redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if d, err := time.ParseDuration(c.TTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid ttl: %q", c.TTL)
	}
	if d, err := time.ParseDuration(c.Wait); err != nil || d <= 0 {
		return fmt.Errorf("invalid wait: %q", c.Wait)
	}
	return nil
}
