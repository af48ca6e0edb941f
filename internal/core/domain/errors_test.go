package domain

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
		{"ErrPersistence", ErrPersistence},
		{"ErrEmbeddingFailure", ErrEmbeddingFailure},
		{"ErrGenerationFailure", ErrGenerationFailure},
		{"ErrRebuildInProgress", ErrRebuildInProgress},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrRebuildInProgress_Message(t *testing.T) {
	assert.Equal(t, "rebuild in progress", ErrRebuildInProgress.Error())
}

func TestPersistenceError_Unwrap(t *testing.T) {
	err := NewPersistenceError("/tmp/index.json", os.ErrNotExist)

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "/tmp/index.json")

	var pe *PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "/tmp/index.json", pe.Path)
}
