package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 0, cfg.GRPCPort)
	assert.False(t, cfg.GRPCEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "model.json", cfg.ModelPath)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, 10*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, BackendNone, cfg.Cache.Backend)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, BackendNone, cfg.Events.Backend)
	assert.Equal(t, "predictions", cfg.Events.Stream)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PREDICTD_HTTP_PORT", "9000")
	t.Setenv("PREDICTD_GRPC_PORT", "9001")
	t.Setenv("MODEL_PATH", "/models/admission.yaml")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("EVENTS_BACKEND", "memory")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_FILE", "/var/log/predictd.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.True(t, cfg.GRPCEnabled())
	assert.Equal(t, ":9001", cfg.GetGRPCAddr())
	assert.Equal(t, "/models/admission.yaml", cfg.ModelPath)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "/var/log/predictd.log", cfg.Log.File)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("PREDICTD_HTTP_PORT", "not-a-port")

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "http port out of range", mutate: func(c *Config) { c.HTTPPort = 70000 }, wantErr: "invalid HTTP port"},
		{name: "negative grpc port", mutate: func(c *Config) { c.GRPCPort = -1 }, wantErr: "invalid gRPC port"},
		{name: "port collision", mutate: func(c *Config) { c.GRPCPort = c.HTTPPort }, wantErr: "collides"},
		{name: "empty model path", mutate: func(c *Config) { c.ModelPath = "" }, wantErr: "model path"},
		{name: "zero body limit", mutate: func(c *Config) { c.HTTP.MaxBodyBytes = 0 }, wantErr: "max body bytes"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "unsupported cache backend"},
		{name: "empty memory cache", mutate: func(c *Config) { c.Cache.Backend = BackendMemory; c.Cache.Size = 0 }, wantErr: "cache size"},
		{name: "unknown events backend", mutate: func(c *Config) { c.Events.Backend = "kafka" }, wantErr: "unsupported events backend"},
		{name: "events without stream", mutate: func(c *Config) { c.Events.Backend = BackendMemory; c.Events.Stream = "" }, wantErr: "events stream"},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Backend = BackendRedis; c.Redis.Addr = "" }, wantErr: "redis address"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "zero health interval", mutate: func(c *Config) { c.HealthCheckInterval = 0 }, wantErr: "health check interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
