package memory

import (
	"sync"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is an in-memory implementation of driven.SettingsStore for testing.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.RetrievalSettings
	saves    int
	saveErr  error
}

// NewSettingsStore creates a store holding the default settings.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: domain.DefaultRetrievalSettings()}
}

// Load returns the stored settings.
func (s *SettingsStore) Load() (domain.RetrievalSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

// Save replaces the stored settings.
func (s *SettingsStore) Save(settings domain.RetrievalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.settings = settings
	s.saves++
	return nil
}

// Path returns a placeholder, as nothing is written to disk.
func (s *SettingsStore) Path() string {
	return ":memory:"
}

// Saves returns how many times Save succeeded.
func (s *SettingsStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// FailSaves makes subsequent saves return err. Nil restores normal behaviour.
func (s *SettingsStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}
