// Package ports defines the interfaces the inference service depends on.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/predictd/pkg/domain"
)

// Predictor is a pre-fitted model exposing only inference.
// Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, frame domain.Frame) (domain.Prediction, error)
	Info() domain.ModelInfo
}

// PredictionCache stores single-row predictions by key
type PredictionCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64) error
	Close() error
}

// EventHandler processes an event received from the bus
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes prediction events and fans them out to subscribers.
// A subscription lasts until the context passed to Subscribe is cancelled.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records service metrics
type MetricsCollector interface {
	ObservePrediction(source, status string, rows int, duration time.Duration)
	IncCacheRequests(result string)
	IncEventsPublished(status string)
	SetDependencyUp(dependency string, up bool)
	SetModelInfo(name, version string)
}
