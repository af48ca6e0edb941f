package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

func TestSettingsStore_LoadDefaults(t *testing.T) {
	s := NewSettingsStore()

	got, err := s.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRetrievalSettings(), got)
	assert.Equal(t, ":memory:", s.Path())
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	s := NewSettingsStore()
	settings := domain.DefaultRetrievalSettings()
	settings.Search.TopK = 3

	require.NoError(t, s.Save(settings))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, got.Search.TopK)
	assert.Equal(t, 1, s.Saves())
}

func TestSettingsStore_FailSaves(t *testing.T) {
	s := NewSettingsStore()
	boom := errors.New("disk full")
	s.FailSaves(boom)

	settings := domain.DefaultRetrievalSettings()
	settings.Search.TopK = 3
	assert.ErrorIs(t, s.Save(settings), boom)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRetrievalSettings().Search.TopK, got.Search.TopK)
	assert.Zero(t, s.Saves())
}
