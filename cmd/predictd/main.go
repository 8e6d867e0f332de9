package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aescanero/predictd/internal/application/health"
	"github.com/aescanero/predictd/internal/application/inference"
	"github.com/aescanero/predictd/internal/config"
	cachememory "github.com/aescanero/predictd/pkg/adapters/cache/memory"
	cacheredis "github.com/aescanero/predictd/pkg/adapters/cache/redis"
	eventsmemory "github.com/aescanero/predictd/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/predictd/pkg/adapters/events/redis"
	"github.com/aescanero/predictd/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/predictd/pkg/adapters/model"
	"github.com/aescanero/predictd/pkg/api/grpc"
	"github.com/aescanero/predictd/pkg/api/http"
	"github.com/aescanero/predictd/pkg/api/websocket"
	"github.com/aescanero/predictd/pkg/ports"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting predictd",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Load the model once; it never changes while the process runs
	predictor, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.ModelPath), zap.Error(err))
	}
	info := predictor.Info()
	logger.Info("model loaded",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.String("kind", info.Kind),
		zap.Int("features", len(info.Features)),
		zap.String("checksum", info.Checksum))

	metricsCollector := prometheus.NewCollector(prom.DefaultRegisterer)

	// Initialize Redis client
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	cache, err := newCache(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("failed to create prediction cache", zap.Error(err))
	}
	eventBus := newEventBus(cfg, redisClient, logger)

	serviceCfg := &inference.Config{
		Predictor:  predictor,
		EventTopic: cfg.Events.Stream,
		Metrics:    metricsCollector,
		Logger:     logger,
	}
	if cache != nil {
		serviceCfg.Cache = cache
	}
	if eventBus != nil {
		serviceCfg.Events = eventBus
	}
	service := inference.NewService(serviceCfg)

	// Health checks
	checks := []health.Check{
		{
			Name:     "model",
			Critical: true,
			Func: func(ctx context.Context) error {
				if predictor.Info().Checksum == "" {
					return fmt.Errorf("model not loaded")
				}
				return nil
			},
		},
	}
	if redisClient != nil {
		checks = append(checks, health.Check{
			Name: "redis",
			Func: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}
	monitor := health.NewMonitor(checks, cfg.HealthCheckInterval, metricsCollector, logger)
	monitor.Start()

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:           cfg.HTTPPort,
		Service:        service,
		Health:         monitor,
		Logger:         logger,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
	})

	// Add WebSocket handler to HTTP server
	if eventBus != nil {
		wsHandler := websocket.NewHandler(eventBus, cfg.Events.Stream, logger)
		httpServer.SetupWebSocket(wsHandler)
	}

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Port:    cfg.GRPCPort,
			Service: service,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal("failed to create gRPC server", zap.Error(err))
		}
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("predictd started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("events_backend", cfg.Events.Backend))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	monitor.Stop()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error("event bus close error", zap.Error(err))
		}
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Error("prediction cache close error", zap.Error(err))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("predictd shut down complete")
}

// newCache builds the configured prediction cache, or nil when caching is off
func newCache(cfg *config.Config, client *goredis.Client, logger *zap.Logger) (ports.PredictionCache, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return cachememory.NewPredictionCache(cfg.Cache.Size)
	case config.BackendRedis:
		return cacheredis.NewPredictionCache(client, cfg.Cache.TTL, logger), nil
	default:
		return nil, nil
	}
}

// newEventBus builds the configured event bus, or nil when events are off
func newEventBus(cfg *config.Config, client *goredis.Client, logger *zap.Logger) ports.EventBus {
	switch cfg.Events.Backend {
	case config.BackendMemory:
		return eventsmemory.NewInMemoryEventBus()
	case config.BackendRedis:
		return eventsredis.NewStreamsEventBus(client, cfg.Events.MaxLen, logger)
	default:
		return nil
	}
}

// initLogger initializes the logger based on log level.
// When LOG_FILE is set, entries are also written to a rotated file.
func initLogger(cfg *config.Config) *zap.Logger {
	var zapLevel zapcore.Level
	switch cfg.LogLevel {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if cfg.Log.File == "" {
		return logger
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}),
		config.Level,
	)

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
