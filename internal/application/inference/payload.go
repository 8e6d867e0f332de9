package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aescanero/predictd/pkg/domain"
)

// DecodeRow parses a request body holding a single JSON object of feature values
func DecodeRow(body []byte) (domain.FeatureRow, error) {
	v, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, InvalidPayload(fmt.Sprintf("request body must be a JSON object, got %s", jsonKind(v)), nil)
	}

	return NormalizeRow(obj)
}

// DecodeBatch parses a request body holding a JSON array of feature objects
func DecodeBatch(body []byte) (domain.Frame, error) {
	v, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}

	items, ok := v.([]interface{})
	if !ok {
		return nil, InvalidPayload(fmt.Sprintf("request body must be a JSON array of objects, got %s", jsonKind(v)), nil)
	}
	if len(items) == 0 {
		return nil, InvalidPayload("request body must contain at least one row", nil)
	}

	frame := make(domain.Frame, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, InvalidPayload(fmt.Sprintf("row %d must be a JSON object, got %s", i, jsonKind(item)), nil)
		}
		row, err := NormalizeRow(obj)
		if err != nil {
			return nil, InvalidPayload(fmt.Sprintf("row %d is invalid", i), err)
		}
		frame[i] = row
	}

	return frame, nil
}

// NormalizeRow checks every value is a scalar and converts JSON numbers to float64
func NormalizeRow(obj map[string]interface{}) (domain.FeatureRow, error) {
	row := make(domain.FeatureRow, len(obj))
	for name, value := range obj {
		switch v := value.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, InvalidPayload(fmt.Sprintf("feature %q is not a valid number", name), err)
			}
			row[name] = f
		case nil, bool, string, float64:
			row[name] = v
		default:
			return nil, InvalidPayload(fmt.Sprintf("feature %q must be a scalar, got %s", name, jsonKind(value)), nil)
		}
	}
	return row, nil
}

func decodeJSON(body []byte) (interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, InvalidPayload("request body is empty", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, InvalidPayload("request body is not valid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, InvalidPayload("request body has trailing data after the JSON value", nil)
	}

	return v, nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
