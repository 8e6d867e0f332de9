package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend names shared by the cache and events settings
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the prediction service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PREDICTD_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"PREDICTD_GRPC_PORT" envDefault:"0"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Model artifact
	ModelPath string `env:"MODEL_PATH" envDefault:"model.json"`

	Log    LogConfig
	HTTP   HTTPConfig
	Cache  CacheConfig
	Events EventsConfig

	// Redis configuration
	Redis RedisConfig

	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`

	// Timeouts
	Timeouts TimeoutConfig
}

// LogConfig holds the optional rotating file sink
type LogConfig struct {
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// HTTPConfig holds HTTP transport limits
type HTTPConfig struct {
	MaxBodyBytes   int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
}

// CacheConfig holds prediction cache configuration
type CacheConfig struct {
	Backend string        `env:"CACHE_BACKEND" envDefault:"none"`
	Size    int           `env:"CACHE_SIZE" envDefault:"1024"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

// EventsConfig holds prediction event configuration
type EventsConfig struct {
	Backend string `env:"EVENTS_BACKEND" envDefault:"none"`
	Stream  string `env:"EVENTS_STREAM" envDefault:"predictions"`
	MaxLen  int64  `env:"EVENTS_MAX_LEN" envDefault:"10000"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("gRPC port %d collides with HTTP port", c.GRPCPort)
	}

	if c.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}

	if c.HTTP.MaxBodyBytes < 1 {
		return fmt.Errorf("HTTP max body bytes must be positive")
	}
	if c.HTTP.RequestTimeout < 0 {
		return fmt.Errorf("HTTP request timeout must not be negative")
	}

	if !validBackend(c.Cache.Backend) {
		return fmt.Errorf("unsupported cache backend: %s (must be none, memory, or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendMemory && c.Cache.Size < 1 {
		return fmt.Errorf("cache size must be at least 1")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}

	if !validBackend(c.Events.Backend) {
		return fmt.Errorf("unsupported events backend: %s (must be none, memory, or redis)", c.Events.Backend)
	}
	if c.Events.Backend != BackendNone && c.Events.Stream == "" {
		return fmt.Errorf("events stream is required")
	}

	// Validate Redis config
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend == BackendRedis || c.Events.Backend == BackendRedis
}

// GRPCEnabled reports whether the gRPC transport should be started
func (c *Config) GRPCEnabled() bool {
	return c.GRPCPort > 0
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func validBackend(name string) bool {
	switch name {
	case BackendNone, BackendMemory, BackendRedis:
		return true
	}
	return false
}
