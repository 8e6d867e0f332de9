package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/predictd/pkg/adapters/model"
	"github.com/aescanero/predictd/pkg/domain"
	"github.com/aescanero/predictd/pkg/ports"
)

// DefaultEventTopic is the topic prediction events are published to
const DefaultEventTopic = "predictions"

// Request sources, used as metric and event labels
const (
	SourceHTTP      = "http"
	SourceHTTPBatch = "http_batch"
	SourceGRPC      = "grpc"
)

// Request is one call to the model
type Request struct {
	ID     string
	Source string
	Frame  domain.Frame
}

// Service runs predictions against the loaded model
type Service struct {
	predictor ports.Predictor
	cache     ports.PredictionCache
	events    ports.EventBus
	metrics   ports.MetricsCollector
	logger    *zap.Logger

	topic     string
	keyPrefix string
}

// Config holds inference service dependencies.
// Cache and Events are optional.
type Config struct {
	Predictor  ports.Predictor
	Cache      ports.PredictionCache
	Events     ports.EventBus
	EventTopic string
	Metrics    ports.MetricsCollector
	Logger     *zap.Logger
}

// NewService creates a new inference service
func NewService(cfg *Config) *Service {
	topic := cfg.EventTopic
	if topic == "" {
		topic = DefaultEventTopic
	}

	info := cfg.Predictor.Info()
	prefix := info.Checksum
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}

	if cfg.Metrics != nil {
		cfg.Metrics.SetModelInfo(info.Name, info.Version)
	}

	return &Service{
		predictor: cfg.Predictor,
		cache:     cfg.Cache,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		topic:     topic,
		keyPrefix: prefix,
	}
}

// ModelInfo returns metadata of the loaded model
func (s *Service) ModelInfo() domain.ModelInfo {
	return s.predictor.Info()
}

// Predict returns one prediction per row of the request frame.
// Failures are *Error values matching ErrInvalidPayload or ErrInferenceFailure.
func (s *Service) Predict(ctx context.Context, req Request) (domain.Prediction, error) {
	start := time.Now()

	prediction, err := s.predict(ctx, req)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		if e, ok := AsError(err); ok {
			status = string(e.Code)
		}
		s.logger.Warn("prediction failed",
			zap.String("request_id", req.ID),
			zap.String("source", req.Source),
			zap.Int("rows", len(req.Frame)),
			zap.Error(err))
	} else {
		s.logger.Debug("prediction completed",
			zap.String("request_id", req.ID),
			zap.String("source", req.Source),
			zap.Int("rows", len(req.Frame)),
			zap.Duration("duration", duration))
	}

	if s.metrics != nil {
		s.metrics.ObservePrediction(req.Source, status, len(req.Frame), duration)
	}
	s.publish(ctx, req, prediction, err, duration)

	return prediction, err
}

func (s *Service) predict(ctx context.Context, req Request) (domain.Prediction, error) {
	if len(req.Frame) == 0 {
		return nil, InvalidPayload("at least one feature row is required", nil)
	}

	keys := s.cacheKeys(req.Frame)
	if cached, ok := s.lookup(ctx, keys); ok {
		return cached, nil
	}

	prediction, err := s.predictor.Predict(ctx, req.Frame)
	if err != nil {
		return nil, classify(err)
	}
	if len(prediction) != len(req.Frame) {
		return nil, InferenceFailure("model returned an unexpected number of predictions", nil).
			WithDetails(map[string]int{"rows": len(req.Frame), "predictions": len(prediction)})
	}

	s.store(ctx, keys, prediction)

	return prediction, nil
}

// classify maps a model error to the prediction error taxonomy
func classify(err error) error {
	switch {
	case errors.Is(err, model.ErrSchema):
		return InvalidPayload("features do not match the model", err)
	case errors.Is(err, context.DeadlineExceeded):
		return InferenceFailure("prediction timed out", err)
	case errors.Is(err, context.Canceled):
		return InferenceFailure("prediction cancelled", err)
	default:
		return InferenceFailure("model failed to predict", err)
	}
}

// cacheKeys returns one key per row, or nil when caching is disabled
func (s *Service) cacheKeys(frame domain.Frame) []string {
	if s.cache == nil {
		return nil
	}

	keys := make([]string, len(frame))
	for i, row := range frame {
		// map keys are marshalled in sorted order
		data, err := json.Marshal(row)
		if err != nil {
			return nil
		}
		sum := sha256.Sum256(data)
		keys[i] = s.keyPrefix + ":" + hex.EncodeToString(sum[:])
	}
	return keys
}

// lookup succeeds only when every row is cached
func (s *Service) lookup(ctx context.Context, keys []string) (domain.Prediction, bool) {
	if keys == nil {
		return nil, false
	}

	out := make(domain.Prediction, len(keys))
	for i, key := range keys {
		v, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("prediction cache lookup failed", zap.Error(err))
			s.recordCache("error")
			return nil, false
		}
		if !ok {
			s.recordCache("miss")
			return nil, false
		}
		out[i] = v
	}

	s.recordCache("hit")
	return out, true
}

func (s *Service) store(ctx context.Context, keys []string, prediction domain.Prediction) {
	for i, key := range keys {
		if err := s.cache.Set(ctx, key, prediction[i]); err != nil {
			s.logger.Warn("failed to cache prediction", zap.Error(err))
			return
		}
	}
}

func (s *Service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.IncCacheRequests(result)
	}
}

// publish emits a prediction event; failures are logged, never returned
func (s *Service) publish(ctx context.Context, req Request, prediction domain.Prediction, predErr error, duration time.Duration) {
	if s.events == nil {
		return
	}

	event := domain.Event{
		ID:         uuid.New().String(),
		Type:       domain.EventTypePredictionCompleted,
		RequestID:  req.ID,
		Source:     req.Source,
		Rows:       len(req.Frame),
		Prediction: prediction,
		Duration:   duration,
		Timestamp:  time.Now().UTC(),
	}
	if predErr != nil {
		event.Type = domain.EventTypePredictionFailed
		event.Error = predErr.Error()
		if e, ok := AsError(predErr); ok {
			event.ErrorCode = string(e.Code)
		}
	}

	// the request context may already be cancelled by the time we publish
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	status := "success"
	if err := s.events.Publish(pubCtx, s.topic, event); err != nil {
		status = "error"
		s.logger.Warn("failed to publish prediction event",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.IncEventsPublished(status)
	}
}
