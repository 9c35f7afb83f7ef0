package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists Settings as a JSON file.
type Store struct {
	path    string
	current Settings
	mu      sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int      `json:"version"`
	UpdatedAt string   `json:"updated_at"`
	Settings  Settings `json:"settings"`
}

const currentVersion = 1

// NewStore opens the store at path. A missing file yields the defaults;
// it is created on first Update.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    path,
		current: Default(),
	}
	s.current.ID = uuid.New().String()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("settings: create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("settings: load store: %w", err)
		}
	}

	return s, nil
}

// NewDefaultStore opens the store at ~/.intake/settings.json.
func NewDefaultStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("settings: home directory: %w", err)
	}
	return NewStore(filepath.Join(homeDir, ".intake", "settings.json"))
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	if stored.Version > currentVersion {
		return fmt.Errorf("unsupported version %d", stored.Version)
	}
	if err := stored.Settings.Validate(); err != nil {
		return err
	}
	if stored.Settings.ID == "" {
		stored.Settings.ID = uuid.New().String()
	}

	s.current = stored.Settings
	return nil
}

// save writes the current settings with a temp file and rename. The
// caller holds mu.
func (s *Store) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Settings:  s.current,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal JSON: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("settings: write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("settings: rename temp file: %w", err)
	}

	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update validates next, bumps the revision and persists it. The stored ID
// is kept regardless of next.ID.
func (s *Store) Update(next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	next = next.Clone()
	next.ID = prev.ID
	next.Revision = prev.Revision + 1
	next.Updated = time.Now()

	s.current = next
	if err := s.save(); err != nil {
		s.current = prev
		return Settings{}, err
	}
	return next.Clone(), nil
}

// Path returns the file path of the store.
func (s *Store) Path() string {
	return s.path
}
