package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{"network timeout", ErrCodeNetworkTimeout, CategoryNetwork, SeverityWarning, true},
		{"model unavailable", ErrCodeModelUnavailable, CategoryNetwork, SeverityWarning, true},
		{"provider blocked", ErrCodeProviderBlocked, CategoryNetwork, SeverityError, false},
		{"empty question", ErrCodeQuestionEmpty, CategoryValidation, SeverityError, false},
		{"max results range", ErrCodeMaxResultsRange, CategoryValidation, SeverityError, false},
		{"decomposition", ErrCodeDecompositionFailed, CategoryPipeline, SeverityError, false},
		{"summarization", ErrCodeSummarizationFailed, CategoryPipeline, SeverityFatal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestScoutError_ErrorFormat(t *testing.T) {
	err := New(ErrCodeQuestionEmpty, "question must not be empty", nil)
	assert.Equal(t, "[ERR_402_QUESTION_EMPTY] question must not be empty", err.Error())
}

func TestScoutError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrCodeNetworkUnavailable, "provider unreachable", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestScoutError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeDecompositionFailed, "first", nil)
	b := New(ErrCodeDecompositionFailed, "second", nil)
	c := New(ErrCodeSummarizationFailed, "other", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestScoutError_IsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeSummarizationFailed, "model quota exhausted", nil)
	wrapped := fmt.Errorf("research failed: %w", inner)

	assert.True(t, errors.Is(wrapped, New(ErrCodeSummarizationFailed, "", nil)))

	var se *ScoutError
	require.True(t, errors.As(wrapped, &se))
	assert.Equal(t, ErrCodeSummarizationFailed, se.Code)
}

func TestWrap(t *testing.T) {
	t.Run("nil returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(ErrCodeInternal, nil))
	})

	t.Run("message comes from cause", func(t *testing.T) {
		cause := errors.New("dial tcp: i/o timeout")
		err := Wrap(ErrCodeNetworkTimeout, cause)
		require.NotNil(t, err)
		assert.Equal(t, "dial tcp: i/o timeout", err.Message)
		assert.Equal(t, cause, err.Cause)
	})
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := DecompositionError("bad model output", nil).
		WithDetail("model", "gpt-4o-mini").
		WithSuggestion("check the llm.model setting")

	assert.Equal(t, "gpt-4o-mini", err.Details["model"])
	assert.Equal(t, "check the llm.model setting", err.Suggestion)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NetworkError("timeout", nil)))
	assert.False(t, IsRetryable(ValidationError("bad input", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(SummarizationError("quota", nil)))
	assert.False(t, IsFatal(DecompositionError("parse", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := ValidationError("bad", nil)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
	assert.Equal(t, CategoryValidation, GetCategory(err))

	plain := errors.New("plain")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
}
