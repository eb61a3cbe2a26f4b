package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// UsernameStore persists the watched username list.
type UsernameStore struct {
	fs   afero.Fs
	path string
}

// usernameFile accepts both a bare JSON array and the legacy
// {"usernames": [...]} envelope.
type usernameFile []string

func (u *usernameFile) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*u = list
		return nil
	}

	var envelope struct {
		Usernames *[]string `json:"usernames"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Usernames == nil {
		return fmt.Errorf("missing usernames field")
	}
	*u = *envelope.Usernames
	return nil
}

// NewUsernameStore creates a username store on the OS filesystem.
func NewUsernameStore(path string) *UsernameStore {
	return NewUsernameStoreWithFs(afero.NewOsFs(), path)
}

// NewUsernameStoreWithFs creates a username store on the given filesystem.
func NewUsernameStoreWithFs(fs afero.Fs, path string) *UsernameStore {
	return &UsernameStore{fs: fs, path: path}
}

// Path returns the backing file path.
func (s *UsernameStore) Path() string {
	return s.path
}

// Load returns the stored usernames with blanks and duplicates dropped.
// A corrupt file yields an empty list together with a wrapped ErrCorrupt.
func (s *UsernameStore) Load() ([]string, error) {
	var file usernameFile
	found, err := readJSON(s.fs, s.path, &file)
	if !found {
		return []string{}, nil
	}
	if err != nil {
		return []string{}, err
	}

	names := lo.FilterMap(file, func(name string, _ int) (string, bool) {
		name = strings.TrimSpace(name)
		return name, name != ""
	})
	return lo.Uniq(names), nil
}

// Save overwrites the file with names as a JSON array.
func (s *UsernameStore) Save(names []string) error {
	if names == nil {
		names = []string{}
	}
	return writeJSONAtomic(s.fs, s.path, names)
}
