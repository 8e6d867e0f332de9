// Package linear implements the linear regression pipeline on gonum matrices.
package linear

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aescanero/predictd/pkg/adapters/model/artifact"
	"github.com/aescanero/predictd/pkg/domain"
)

// ErrNonFinite is returned when a prediction is NaN or infinite
var ErrNonFinite = errors.New("prediction is not finite")

// Pipeline encodes rows, standardizes them and applies y = Xw + b
type Pipeline struct {
	encoder   *artifact.Encoder
	mean      []float64
	scale     []float64
	coef      *mat.VecDense
	intercept float64
}

// New builds a pipeline from a validated artifact
func New(a *artifact.Artifact) (*Pipeline, error) {
	if a.Kind != artifact.KindLinearRegression {
		return nil, fmt.Errorf("unexpected artifact kind: %s", a.Kind)
	}

	encoder := artifact.NewEncoder(a.Features)
	if len(a.Coefficients) != encoder.Width() {
		return nil, fmt.Errorf("coefficient count %d does not match %d expanded columns", len(a.Coefficients), encoder.Width())
	}

	coef := make([]float64, len(a.Coefficients))
	copy(coef, a.Coefficients)

	p := &Pipeline{
		encoder:   encoder,
		coef:      mat.NewVecDense(len(coef), coef),
		intercept: a.Intercept,
	}

	if a.Scaler != nil {
		p.mean = append([]float64(nil), a.Scaler.Mean...)
		p.scale = append([]float64(nil), a.Scaler.Scale...)
	}

	return p, nil
}

// Predict returns one value per row of frame
func (p *Pipeline) Predict(ctx context.Context, frame domain.Frame) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: frame has no rows", artifact.ErrSchema)
	}

	x, err := p.design(frame)
	if err != nil {
		return nil, err
	}

	var y mat.VecDense
	y.MulVec(x, p.coef)

	out := make(domain.Prediction, len(frame))
	for i := range out {
		v := y.AtVec(i) + p.intercept
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("row %d: %w", i, ErrNonFinite)
		}
		out[i] = v
	}

	return out, nil
}

// design builds the standardized design matrix for frame
func (p *Pipeline) design(frame domain.Frame) (*mat.Dense, error) {
	width := p.encoder.Width()
	x := mat.NewDense(len(frame), width, nil)
	row := make([]float64, width)

	for i, r := range frame {
		if err := p.encoder.Encode(r, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		x.SetRow(i, row)
	}

	if p.scale != nil {
		x.Apply(func(_, j int, v float64) float64 {
			return (v - p.mean[j]) / p.scale[j]
		}, x)
	}

	return x, nil
}
