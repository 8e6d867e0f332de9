package model

import (
	"context"
	"fmt"

	"github.com/aescanero/predictd/pkg/adapters/model/artifact"
	"github.com/aescanero/predictd/pkg/adapters/model/linear"
	"github.com/aescanero/predictd/pkg/domain"
)

// estimator is the inference half of a model, without metadata
type estimator interface {
	Predict(ctx context.Context, frame domain.Frame) (domain.Prediction, error)
}

// newEstimator creates an estimator based on artifact kind
func newEstimator(a *artifact.Artifact) (estimator, error) {
	switch a.Kind {
	case artifact.KindLinearRegression:
		return linear.New(a)
	default:
		return nil, fmt.Errorf("unsupported model kind: %s", a.Kind)
	}
}
