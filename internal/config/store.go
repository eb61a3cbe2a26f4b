package config

import (
	"github.com/spf13/afero"

	"live-watcher/internal/domain"
)

// Store defines persistence operations for user settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	fs   afero.Fs
	path string
}

// NewJSONStore creates a JSON-backed settings store on the OS filesystem.
func NewJSONStore(path string) *JSONStore {
	return NewJSONStoreWithFs(afero.NewOsFs(), path)
}

// NewJSONStoreWithFs creates a settings store on the given filesystem.
func NewJSONStoreWithFs(fs afero.Fs, path string) *JSONStore {
	return &JSONStore{fs: fs, path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load always returns usable settings. A non-nil error explains why defaults
// were substituted for an unreadable or corrupt file.
func (s *JSONStore) Load() (domain.Settings, error) {
	cfg := DefaultSettings()
	found, err := readJSON(s.fs, s.path, &cfg)
	if !found {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), err
	}
	return cfg, nil
}

// Save writes settings as indented JSON through an atomic rename.
func (s *JSONStore) Save(cfg domain.Settings) error {
	return writeJSONAtomic(s.fs, s.path, cfg)
}
