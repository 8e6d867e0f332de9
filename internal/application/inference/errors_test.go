package inference

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	cause := errors.New("underlying")

	err := fmt.Errorf("handler: %w", InvalidPayload("bad body", cause))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInferenceFailure)
	assert.Equal(t, "handler: bad body: underlying", err.Error())

	err = InferenceFailure("model failed", nil)
	assert.ErrorIs(t, err, ErrInferenceFailure)
	assert.Equal(t, "model failed", err.Error())
}

func TestAsError(t *testing.T) {
	e, ok := AsError(fmt.Errorf("wrapped: %w", InferenceFailure("x", nil).WithDetails("d")))
	require.True(t, ok)
	assert.Equal(t, CodeInferenceFailure, e.Code)
	assert.Equal(t, "d", e.Details)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}
