package driven

import "github.com/custodia-labs/studymate/internal/core/domain"

// SettingsStore provides access to the engine configuration.
// Implementations handle persistence (e.g., TOML files) and defaults.
type SettingsStore interface {
	// Load reads the settings, filling anything unset with defaults.
	Load() (domain.RetrievalSettings, error)

	// Save persists the settings.
	Save(settings domain.RetrievalSettings) error

	// Path returns the configuration file path.
	Path() string
}
