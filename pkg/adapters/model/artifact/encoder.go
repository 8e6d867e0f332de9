package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aescanero/predictd/pkg/domain"
)

// ErrSchema reports a feature row that does not match the artifact's features
var ErrSchema = errors.New("feature schema mismatch")

// Encoder expands feature rows into numeric design-matrix columns.
// Number and bool features take one column; categorical features are one-hot encoded.
type Encoder struct {
	features []Feature
	index    []map[string]int
	width    int
}

// NewEncoder creates an encoder for the declared features
func NewEncoder(features []Feature) *Encoder {
	e := &Encoder{
		features: features,
		index:    make([]map[string]int, len(features)),
	}

	for i, f := range features {
		if f.Type == domain.FeatureTypeCategorical {
			idx := make(map[string]int, len(f.Categories))
			for j, c := range f.Categories {
				idx[c] = j
			}
			e.index[i] = idx
			e.width += len(f.Categories)
			continue
		}
		e.width++
	}

	return e
}

// Width returns the number of expanded columns
func (e *Encoder) Width() int {
	return e.width
}

// Columns returns the expanded column names
func (e *Encoder) Columns() []string {
	cols := make([]string, 0, e.width)
	for _, f := range e.features {
		if f.Type == domain.FeatureTypeCategorical {
			for _, c := range f.Categories {
				cols = append(cols, f.Name+"="+c)
			}
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// Encode writes the expanded columns of row into dst, which must have Width() elements.
// Keys not declared as features are ignored.
func (e *Encoder) Encode(row domain.FeatureRow, dst []float64) error {
	if len(dst) != e.width {
		return fmt.Errorf("destination has %d columns, encoder needs %d", len(dst), e.width)
	}

	col := 0
	for i, f := range e.features {
		value, ok := row[f.Name]
		if !ok {
			return fmt.Errorf("%w: missing feature %q", ErrSchema, f.Name)
		}
		if value == nil {
			return fmt.Errorf("%w: feature %q is null", ErrSchema, f.Name)
		}

		switch f.Type {
		case domain.FeatureTypeCategorical:
			n := len(f.Categories)
			for j := 0; j < n; j++ {
				dst[col+j] = 0
			}
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: feature %q must be a string, got %T", ErrSchema, f.Name, value)
			}
			j, known := e.index[i][s]
			if known {
				dst[col+j] = 1
			} else if f.HandleUnknown != HandleUnknownIgnore {
				return fmt.Errorf("%w: feature %q has unknown category %q", ErrSchema, f.Name, s)
			}
			col += n

		case domain.FeatureTypeBool:
			v, err := toBool(value)
			if err != nil {
				return fmt.Errorf("%w: feature %q: %v", ErrSchema, f.Name, err)
			}
			dst[col] = v
			col++

		default:
			v, err := toNumber(value)
			if err != nil {
				return fmt.Errorf("%w: feature %q: %v", ErrSchema, f.Name, err)
			}
			dst[col] = v
			col++
		}
	}

	return nil
}

func toNumber(value interface{}) (float64, error) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", x.String())
		}
		v = f
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", x)
		}
		v = f
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value must be finite")
	}
	return v, nil
}

func toBool(value interface{}) (float64, error) {
	if b, ok := value.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}

	v, err := toNumber(value)
	if err != nil {
		return 0, fmt.Errorf("expected a boolean, got %T", value)
	}
	if v != 0 && v != 1 {
		return 0, fmt.Errorf("expected a boolean, got %v", v)
	}
	return v, nil
}
