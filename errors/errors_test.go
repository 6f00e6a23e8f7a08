package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil defaults to transient", nil, ErrorTransient},
		{"context parse is invalid", ErrContextParse, ErrorInvalid},
		{"inheritance conflict is invalid", ErrInheritanceConflict, ErrorInvalid},
		{"duplicate model is invalid", ErrDuplicateModel, ErrorInvalid},
		{"type mismatch is invalid", ErrTypeMismatch, ErrorInvalid},
		{"required missing is invalid", ErrRequiredMissing, ErrorInvalid},
		{"store conflict is transient", ErrStoreConflict, ErrorTransient},
		{"store unavailable is transient", ErrStoreUnavailable, ErrorTransient},
		{"detached resource is fatal", ErrDetachedResource, ErrorFatal},
		{"context cancellation is transient", context.Canceled, ErrorTransient},
		{"unknown error is transient", stderrors.New("boom"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrTypeMismatch, "Validator", "CheckWrite", "coercion")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrTypeMismatch))
	assert.Equal(t, "Validator.CheckWrite: coercion failed: type mismatch", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "C", "M", "a"))
	assert.NoError(t, WrapInvalid(nil, "C", "M", "a"))
	assert.NoError(t, WrapTransient(nil, "C", "M", "a"))
	assert.NoError(t, WrapFatal(nil, "C", "M", "a"))
}

func TestWrapInvalidClassification(t *testing.T) {
	base := fmt.Errorf("weird input")
	err := WrapInvalid(base, "ContextResolver", "Resolve", "term parsing")

	assert.True(t, IsInvalid(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsFatal(err))

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, "ContextResolver", ce.Component)
	assert.Equal(t, "Resolve", ce.Operation)
	assert.True(t, stderrors.Is(err, base))
}

func TestClassificationSurvivesRewrapping(t *testing.T) {
	inner := WrapInvalid(ErrCardinality, "Validator", "CheckWrite", "bound check")
	outer := Wrap(inner, "Resource", "Set", "validation")

	assert.True(t, IsInvalid(outer))
	assert.True(t, stderrors.Is(outer, ErrCardinality))
}

func TestShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	assert.True(t, rc.ShouldRetry(ErrStoreConflict, 0))
	assert.False(t, rc.ShouldRetry(ErrStoreConflict, rc.MaxRetries))
	assert.False(t, rc.ShouldRetry(ErrTypeMismatch, 0))
	assert.False(t, rc.ShouldRetry(nil, 0))
}

func TestBackoffDelay(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, rc.BackoffDelay(0))
	assert.Equal(t, 200*time.Millisecond, rc.BackoffDelay(1))
	assert.Equal(t, 400*time.Millisecond, rc.BackoffDelay(2))
	assert.Equal(t, time.Second, rc.BackoffDelay(10), "capped at MaxDelay")
}
