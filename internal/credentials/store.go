package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const fileName = "config.json"

var (
	ErrNotFound  = errors.New("no API key set")
	ErrRead      = errors.New("error reading config")
	ErrWrite     = errors.New("error writing config")
	ErrRemove    = errors.New("error removing config")
	ErrParse     = errors.New("config parse error")
	ErrDirectory = errors.New("config directory error")
)

type fileConfig struct {
	APIKey string `json:"api_key"`
}

// Store persists the API key as {"api_key": "..."} in dir/config.json.
// When the file is absent the key is read from envVar instead.
type Store struct {
	dir    string
	envVar string
}

// NewStore creates a store rooted at dir
func NewStore(dir, envVar string) *Store {
	return &Store{dir: dir, envVar: envVar}
}

// DefaultDir returns the per-user config directory for appName.
// Linux follows XDG naming and uses the lowercased name.
func DefaultDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDirectory, err)
	}
	name := appName
	if runtime.GOOS == "linux" {
		name = strings.ToLower(strings.ReplaceAll(appName, " ", ""))
	}
	return filepath.Join(base, name), nil
}

// Path returns the location of the config file
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load returns the stored key, falling back to the environment.
// It is read from disk on every call.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		if key := os.Getenv(s.envVar); s.envVar != "" && key != "" {
			return key, nil
		}
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRead, err)
	}

	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	return cfg.APIKey, nil
}

// Save writes apiKey to the config file, creating the directory if needed
func (s *Store) Save(apiKey string) error {
	data, err := json.Marshal(fileConfig{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrDirectory, err)
	}
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Remove deletes the config file. Removing a missing file is ErrNotFound.
func (s *Store) Remove() error {
	err := os.Remove(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemove, err)
	}
	return nil
}
