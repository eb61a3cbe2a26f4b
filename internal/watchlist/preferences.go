package watchlist

import (
	"fmt"
	"sync"

	"live-watcher/internal/domain"
)

// SettingsStore persists user settings.
type SettingsStore interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// Preferences guards the recording toggle. It is the single writer of the
// settings file, so concurrent monitor loops may read it freely.
type Preferences struct {
	mu       sync.RWMutex
	store    SettingsStore
	settings domain.Settings
}

// NewPreferences loads settings. Like New, a non-nil error means defaults
// are in effect and is meant to be logged, not treated as fatal.
func NewPreferences(store SettingsStore) (*Preferences, error) {
	settings, err := store.Load()
	return &Preferences{store: store, settings: settings}, err
}

// RecordingEnabled reports the current toggle value.
func (p *Preferences) RecordingEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings.RecordingEnabled
}

// Settings returns a snapshot of the current settings.
func (p *Preferences) Settings() domain.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// ToggleRecording flips the toggle and returns the new value.
func (p *Preferences) ToggleRecording() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setLocked(!p.settings.RecordingEnabled)
}

// SetRecording persists an explicit toggle value.
func (p *Preferences) SetRecording(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.setLocked(enabled)
	return err
}

func (p *Preferences) setLocked(enabled bool) (bool, error) {
	next := p.settings
	next.RecordingEnabled = enabled
	if err := p.store.Save(next); err != nil {
		return p.settings.RecordingEnabled, fmt.Errorf("save settings: %w", err)
	}
	p.settings = next
	return enabled, nil
}
