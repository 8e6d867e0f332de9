package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aescanero/predictd/pkg/domain"
)

// KindLinearRegression is a linear model with optional standard scaling
const KindLinearRegression = "linear_regression"

// Handling of categorical values not listed in the artifact
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// Format is the serialization of an artifact file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var validate = validator.New()

// Artifact is a serialized, pre-fitted regression pipeline
type Artifact struct {
	Name         string    `json:"name" yaml:"name" validate:"required"`
	Version      string    `json:"version" yaml:"version"`
	Kind         string    `json:"kind" yaml:"kind" validate:"required,oneof=linear_regression"`
	Features     []Feature `json:"features" yaml:"features" validate:"required,min=1,dive"`
	Scaler       *Scaler   `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients" validate:"required,min=1"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
}

// Feature declares one input column
type Feature struct {
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Type          string   `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=number bool categorical"`
	Categories    []string `json:"categories,omitempty" yaml:"categories,omitempty" validate:"required_if=Type categorical,unique"`
	HandleUnknown string   `json:"handle_unknown,omitempty" yaml:"handle_unknown,omitempty" validate:"omitempty,oneof=error ignore"`
}

// Scaler standardizes expanded columns as (x - mean) / scale
type Scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean" validate:"required"`
	Scale []float64 `json:"scale" yaml:"scale" validate:"required"`
}

// FormatFromPath picks the format by file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported artifact extension: %q", filepath.Ext(path))
	}
}

// Decode parses and validates an artifact
func Decode(data []byte, format Format) (*Artifact, error) {
	a := &Artifact{}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(a); err != nil {
			return nil, fmt.Errorf("failed to decode JSON artifact: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(a); err != nil {
			return nil, fmt.Errorf("failed to decode YAML artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported artifact format: %s", format)
	}

	a.applyDefaults()

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	return a, nil
}

func (a *Artifact) applyDefaults() {
	for i := range a.Features {
		f := &a.Features[i]
		if f.Type == "" {
			f.Type = domain.FeatureTypeNumber
		}
		if f.Type == domain.FeatureTypeCategorical && f.HandleUnknown == "" {
			f.HandleUnknown = HandleUnknownError
		}
	}
}

// Validate checks struct tags, then the shape of the pipeline
func (a *Artifact) Validate() error {
	if err := validate.Struct(a); err != nil {
		return err
	}

	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature: %q", f.Name)
		}
		seen[f.Name] = true
	}

	width := NewEncoder(a.Features).Width()

	if len(a.Coefficients) != width {
		return fmt.Errorf("coefficient count %d does not match %d expanded columns", len(a.Coefficients), width)
	}
	if err := checkFinite("coefficients", a.Coefficients...); err != nil {
		return err
	}
	if err := checkFinite("intercept", a.Intercept); err != nil {
		return err
	}

	if a.Scaler != nil {
		if len(a.Scaler.Mean) != width || len(a.Scaler.Scale) != width {
			return fmt.Errorf("scaler expects %d columns, got mean=%d scale=%d", width, len(a.Scaler.Mean), len(a.Scaler.Scale))
		}
		if err := checkFinite("scaler mean", a.Scaler.Mean...); err != nil {
			return err
		}
		if err := checkFinite("scaler scale", a.Scaler.Scale...); err != nil {
			return err
		}
		for i, s := range a.Scaler.Scale {
			if s == 0 {
				return fmt.Errorf("scaler scale at column %d is zero", i)
			}
		}
	}

	return nil
}

// FeatureInfo returns the features in domain form
func (a *Artifact) FeatureInfo() []domain.FeatureInfo {
	out := make([]domain.FeatureInfo, len(a.Features))
	for i, f := range a.Features {
		out[i] = domain.FeatureInfo{
			Name:       f.Name,
			Type:       f.Type,
			Categories: f.Categories,
		}
	}
	return out
}

func checkFinite(field string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(field + " must be finite")
		}
	}
	return nil
}
