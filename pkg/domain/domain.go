// Package domain holds the value types shared by every layer of predictd.
package domain

import "time"

// FeatureRow is one record of named input values
type FeatureRow map[string]interface{}

// Frame is an ordered table of feature rows
type Frame []FeatureRow

// Prediction holds one value per row of the frame it was computed from
type Prediction []float64

// Feature types understood by model artifacts
const (
	FeatureTypeNumber      = "number"
	FeatureTypeBool        = "bool"
	FeatureTypeCategorical = "categorical"
)

// FeatureInfo describes a feature a model expects
type FeatureInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
}

// ModelInfo describes the loaded model artifact
type ModelInfo struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Kind     string        `json:"kind"`
	Features []FeatureInfo `json:"features"`
	Checksum string        `json:"checksum"`
	Path     string        `json:"path"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// EventType represents the type of prediction event
type EventType string

const (
	EventTypePredictionCompleted EventType = "prediction.completed"
	EventTypePredictionFailed    EventType = "prediction.failed"
)

// Event is published after every prediction attempt
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	RequestID  string        `json:"request_id,omitempty"`
	Source     string        `json:"source"`
	Rows       int           `json:"rows"`
	Prediction []float64     `json:"prediction,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Timestamp  time.Time     `json:"timestamp"`
}
