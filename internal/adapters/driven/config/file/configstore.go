package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// API key environment variables, in order of precedence.
const (
	EnvAPIKey       = "STUDYMATE_OPENAI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// SettingsStore is a file-based implementation of driven.SettingsStore using TOML.
// Configuration is stored in config.toml within the studymate directory.
type SettingsStore struct {
	mu       sync.Mutex
	dir      string
	filePath string
	getenv   func(string) string
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.studymate.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".studymate")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		dir:      configDir,
		filePath: filepath.Join(configDir, "config.toml"),
		getenv:   os.Getenv,
	}, nil
}

// Load reads config.toml over the defaults. A missing file yields the
// defaults. Unknown keys are rejected so typos do not pass silently.
// The API key environment variables override keys from the file.
func (s *SettingsStore) Load() (domain.RetrievalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultRetrievalSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return settings, fmt.Errorf("read config: %w", err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return settings, fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, s.filePath, strict.String())
			}
			var decodeErr *toml.DecodeError
			if errors.As(err, &decodeErr) {
				row, col := decodeErr.Position()
				return settings, fmt.Errorf("%w: %s:%d:%d: %v", domain.ErrInvalidInput, s.filePath, row, col, decodeErr)
			}
			return settings, fmt.Errorf("parse config: %w", err)
		}
	}

	s.applyEnv(&settings)
	s.applyStorageDefaults(&settings)

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("%s: %w", s.filePath, err)
	}
	return settings, nil
}

func (s *SettingsStore) applyEnv(settings *domain.RetrievalSettings) {
	key := s.getenv(EnvAPIKey)
	if key == "" {
		key = s.getenv(EnvOpenAIAPIKey)
	}
	if key == "" {
		return
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = key
	}
	if settings.LLM.Provider == domain.AIProviderOpenAI {
		settings.LLM.APIKey = key
	}
}

func (s *SettingsStore) applyStorageDefaults(settings *domain.RetrievalSettings) {
	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = filepath.Join(s.dir, "data")
	} else {
		settings.Storage.DataDir = expandHome(settings.Storage.DataDir)
	}
	if settings.Storage.IndexPath == "" {
		settings.Storage.IndexPath = filepath.Join(settings.Storage.DataDir, "index")
	} else {
		settings.Storage.IndexPath = expandHome(settings.Storage.IndexPath)
	}
}

// Save writes settings to config.toml. API keys taken from the
// environment are not written back.
func (s *SettingsStore) Save(settings domain.RetrievalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, env := range []string{EnvAPIKey, EnvOpenAIAPIKey} {
		if v := s.getenv(env); v != "" {
			if settings.Embedding.APIKey == v {
				settings.Embedding.APIKey = ""
			}
			if settings.LLM.APIKey == v {
				settings.LLM.APIKey = ""
			}
		}
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Restricted permissions: the file may hold API keys.
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Dir returns the configuration directory.
func (s *SettingsStore) Dir() string {
	return s.dir
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
