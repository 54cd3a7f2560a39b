package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeValidation(t *testing.T) {
	valid := []string{"types.invalid_schema", "commit.retry_exhausted", "catalog.not_found"}
	for _, c := range valid {
		code, err := NewCode(c)
		require.NoError(t, err)
		assert.Equal(t, c, code.String())
	}

	invalid := []string{"invalid", "Types.invalid", "types.", "types.has-hyphen", "types.error_code"}
	for _, c := range invalid {
		_, err := NewCode(c)
		assert.Error(t, err, c)
	}
}

func TestErrorChainingAndContext(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CommonConflict, "commit collided", cause).
		AddContext("path", "metadata/v3.json").
		AddContext("attempt", 2)

	assert.Equal(t, "metadata/v3.json", err.GetContext("path"))
	assert.Equal(t, 2, err.GetContext("attempt"))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "commit collided")
	assert.Contains(t, err.Error(), "disk full")
}

func TestIsCodeWalksUnwrapChain(t *testing.T) {
	inner := New(CommonNotFound, "snapshot missing", nil)
	wrapped := New(CommonInternal, "load failed", inner)

	assert.True(t, IsCode(wrapped, CommonInternal))
	// IsCode follows Unwrap (an *Error's Cause), so the inner code is found
	// through the wrapper; the direct case holds too.
	assert.True(t, IsCode(wrapped, CommonNotFound))
	assert.True(t, IsCode(inner, CommonNotFound))
}

func TestRetryExhaustedTransform(t *testing.T) {
	last := New(CommonConflict, "version hint changed", nil)
	re := &RetryExhaustedError{Attempts: 4, LastError: last}

	transformed := re.Transform()
	assert.True(t, transformed.Code.Equals(CommonRetryExhausted))
	assert.Equal(t, 4, transformed.GetContext("attempts"))
	assert.ErrorIs(t, re, last)
}

func TestTransactionFailedTransform(t *testing.T) {
	cause := errors.New("put failed")
	tf := &TransactionFailedError{
		WrittenFiles: []string{"metadata/snap-1.avro"},
		CleanupOK:    false,
		Cause:        cause,
	}
	transformed := tf.Transform()
	assert.True(t, transformed.Code.Equals(CommonTransactionFailed))
	assert.Equal(t, false, transformed.GetContext("cleanup_ok"))
}
