package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aescanero/predictd/pkg/adapters/model/artifact"
	"github.com/aescanero/predictd/pkg/domain"
)

// ErrSchema is wrapped by Predict when a row does not match the model's features
var ErrSchema = artifact.ErrSchema

// Model is an immutable, loaded model artifact.
// It implements ports.Predictor and is safe for concurrent use.
type Model struct {
	estimator estimator
	info      domain.ModelInfo
}

// Load reads, validates and builds the model artifact at path
func Load(path string) (*Model, error) {
	format, err := artifact.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	return New(data, format, path)
}

// New builds a model from artifact bytes; path is recorded as metadata only
func New(data []byte, format artifact.Format, path string) (*Model, error) {
	a, err := artifact.Decode(data, format)
	if err != nil {
		return nil, err
	}

	est, err := newEstimator(a)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	sum := sha256.Sum256(data)
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return &Model{
		estimator: est,
		info: domain.ModelInfo{
			Name:     a.Name,
			Version:  a.Version,
			Kind:     a.Kind,
			Features: a.FeatureInfo(),
			Checksum: hex.EncodeToString(sum[:]),
			Path:     path,
			LoadedAt: time.Now().UTC(),
		},
	}, nil
}

// Predict runs inference over every row of frame
func (m *Model) Predict(ctx context.Context, frame domain.Frame) (domain.Prediction, error) {
	return m.estimator.Predict(ctx, frame)
}

// Info returns the model metadata
func (m *Model) Info() domain.ModelInfo {
	info := m.info
	info.Features = append([]domain.FeatureInfo(nil), m.info.Features...)
	return info
}
