// Package watchlist holds the watched usernames and recording preference in
// memory and persists every mutation through the config stores.
package watchlist

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrInvalidUsername   = errors.New("invalid username")
	ErrDuplicateUsername = errors.New("username already watched")
	ErrUnknownUsername   = errors.New("username not watched")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{1,64}$`)

// UsernameStore persists the ordered username list.
type UsernameStore interface {
	Load() ([]string, error)
	Save([]string) error
}

// Watchlist is the ordered, de-duplicated set of watched usernames.
type Watchlist struct {
	mu    sync.Mutex
	store UsernameStore
	names []string
}

// New loads the watchlist. The returned Watchlist is always usable; a non-nil
// error reports that the stored list could not be read and an empty one is used.
func New(store UsernameStore) (*Watchlist, error) {
	names, err := store.Load()
	w := &Watchlist{store: store, names: []string{}}
	for _, name := range names {
		if normalized, nErr := Normalize(name); nErr == nil && !lo.Contains(w.names, normalized) {
			w.names = append(w.names, normalized)
		}
	}
	return w, err
}

// Normalize trims, strips a leading @ and lowercases a handle, then validates it.
func Normalize(raw string) (string, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	if !usernamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, raw)
	}
	return name, nil
}

// Add appends a username and persists the list. On a save failure the
// in-memory list is left unchanged.
func (w *Watchlist) Add(raw string) (string, error) {
	name, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if lo.Contains(w.names, name) {
		return name, fmt.Errorf("%w: %s", ErrDuplicateUsername, name)
	}

	next := append(append([]string(nil), w.names...), name)
	if err := w.store.Save(next); err != nil {
		return name, fmt.Errorf("save usernames: %w", err)
	}
	w.names = next
	return name, nil
}

// Remove deletes a username and persists the list.
func (w *Watchlist) Remove(raw string) (string, error) {
	name, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !lo.Contains(w.names, name) {
		return name, fmt.Errorf("%w: %s", ErrUnknownUsername, name)
	}

	next := lo.Without(w.names, name)
	if err := w.store.Save(next); err != nil {
		return name, fmt.Errorf("save usernames: %w", err)
	}
	w.names = next
	return name, nil
}

// List returns a copy of the usernames in insertion order.
func (w *Watchlist) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.names...)
}

// Contains reports whether the normalized form of raw is watched.
func (w *Watchlist) Contains(raw string) bool {
	name, err := Normalize(raw)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return lo.Contains(w.names, name)
}
