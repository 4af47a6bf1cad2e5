package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStd = errors.New("standard error")

func BenchmarkWrap(b *testing.B) {
	err := errors.New("base error")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Wrap(err, Internal, "wrapped message")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		errType ErrorType
		message string
	}{
		{"Credential", Credential, "토큰 발급 실패"},
		{"TaskFailed", TaskFailed, "Task Failed: out of memory"},
		{"Empty Message", Validation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.errType, tt.message)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.True(t, Is(err, tt.errType))
		})
	}
}

func TestNewf(t *testing.T) {
	t.Parallel()

	err := Newf(Submission, "HTTP Error: %d", 500)

	assert.Equal(t, "[Submission] HTTP Error: 500", err.Error())
	assert.True(t, Is(err, Submission))
	assert.False(t, Is(err, TaskFailed))
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{Unknown, "Unknown"},
		{Auth, "Auth"},
		{Validation, "Validation"},
		{Entitlement, "Entitlement"},
		{Credential, "Credential"},
		{Upload, "Upload"},
		{Submission, "Submission"},
		{TaskFailed, "TaskFailed"},
		{Timeout, "Timeout"},
		{Decode, "Decode"},
		{Interrupted, "Interrupted"},
		{ErrorType(-1), "ErrorType(-1)"},
		{ErrorType(999), "ErrorType(999)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errType.String())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("StdError", func(t *testing.T) {
		wrapped := Wrap(errStd, Upload, "OSS Upload failed")

		assert.Contains(t, wrapped.Error(), "OSS Upload failed")
		assert.Contains(t, wrapped.Error(), "standard error")
		assert.True(t, Is(wrapped, Upload))
		assert.ErrorIs(t, wrapped, errStd)
	})

	t.Run("NilError", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, Internal, "should be nil"))
		assert.Nil(t, Wrapf(nil, Internal, "should be %s", "nil"))
	})

	t.Run("Nested", func(t *testing.T) {
		err1 := New(Unavailable, "connection refused")
		err2 := Wrap(err1, Credential, "Get token failed")
		err3 := fmt.Errorf("upload: %w", err2)

		assert.True(t, Is(err3, Credential))
		assert.True(t, Is(err3, Unavailable))
		assert.Equal(t, Credential, TypeOf(err3))
		assert.Equal(t, Unavailable, UnderlyingType(err3))
	})
}

func TestTypeOf_NoAppError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Unknown, TypeOf(nil))
	assert.Equal(t, Unknown, TypeOf(errStd))
	assert.Equal(t, Unknown, UnderlyingType(errStd))
}

func TestRootCause(t *testing.T) {
	t.Parallel()

	assert.Nil(t, RootCause(nil))

	err := Wrap(Wrap(errStd, Internal, "a"), System, "b")
	assert.Equal(t, errStd, RootCause(err))
}

func TestAs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", New(Decode, "unsupported codec"))

	var appErr *AppError
	require.True(t, As(err, &appErr))
	assert.Equal(t, Decode, appErr.Type())
	assert.Equal(t, "unsupported codec", appErr.Message())
	assert.NotEmpty(t, appErr.Stack())
}

func TestFormat(t *testing.T) {
	t.Parallel()

	err := Wrap(errStd, Upload, "upload failed")

	assert.Equal(t, err.Error(), fmt.Sprintf("%s", err))
	assert.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "[Upload] upload failed")
	assert.Contains(t, detailed, "Stack trace:")
	assert.Contains(t, detailed, "Caused by:")
	assert.Contains(t, detailed, "standard error")
}

func TestCaptureStack_FirstFrameIsCaller(t *testing.T) {
	t.Parallel()

	err := New(Internal, "boom")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.NotEmpty(t, appErr.Stack())
	assert.Equal(t, "errors_test.go", appErr.Stack()[0].File)
	assert.Contains(t, appErr.Stack()[0].Function, "TestCaptureStack_FirstFrameIsCaller")
	assert.LessOrEqual(t, len(appErr.Stack()), maxStackFrames)
}
