package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInvalidInputError("image is empty", nil)
	assert.Equal(t, "invalid_input: image is empty", err.Error())

	cause := stderrors.New("no such file")
	err = NewIOError("failed to open image", cause)
	assert.Equal(t, "io: failed to open image (caused by: no such file)", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsType_Wrapped(t *testing.T) {
	inner := InvalidInputf("kernel size %d must be odd", 4)
	wrapped := fmt.Errorf("preprocess: %w", inner)

	assert.True(t, IsType(wrapped, ErrorTypeInvalidInput))
	assert.False(t, IsType(wrapped, ErrorTypeIO))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeInvalidInput))
	assert.False(t, IsType(nil, ErrorTypeInvalidInput))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"config", NewConfigError("bad tolerance", nil), ErrorTypeConfig},
		{"io wrapped", fmt.Errorf("load: %w", NewIOError("decode", nil)), ErrorTypeIO},
		{"plain error", stderrors.New("boom"), ErrorTypeInternal},
		{"internal", NewInternalError("encode", nil), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}
