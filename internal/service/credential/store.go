package credential

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Prefix every Anthropic API key starts with.
const Prefix = "sk-ant-"

// StorageKey is the fixed name the key is persisted under.
const StorageKey = "claude-api-key"

var (
	ErrEmpty         = errors.New("api key is empty")
	ErrInvalidFormat = errors.New("api key must start with " + Prefix)
)

// Source is the read side of the store handed to components that only need the key.
type Source interface {
	Get() string
}

// Validate checks the key format without touching the network.
func Validate(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmpty
	}
	if !strings.HasPrefix(key, Prefix) {
		return ErrInvalidFormat
	}
	return nil
}

// UserMessage maps a validation error to the text shown next to the key input.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmpty):
		return "Please enter a valid API key"
	case errors.Is(err, ErrInvalidFormat):
		return "Please enter a valid Claude API key (should start with '" + Prefix + "')"
	default:
		return "Failed to save API key"
	}
}

// Store holds the single API key and mirrors it to a TOML file.
type Store struct {
	mu    sync.RWMutex
	path  string
	value string
}

// Load reads the persisted key once. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	values, err := readFile(path)
	if err != nil {
		return nil, err
	}

	s.value = strings.TrimSpace(values[StorageKey])
	if s.value != "" {
		log.Printf("[credential] loaded api key %s from %s", s.Masked(), path)
	}
	return s, nil
}

// NewFileStore returns an empty store that persists to path on Set. Used when
// the existing file cannot be read.
func NewFileStore(path string) *Store {
	return &Store{path: path}
}

// NewMemoryStore returns a store that never touches disk.
func NewMemoryStore(value string) *Store {
	return &Store{value: strings.TrimSpace(value)}
}

// Get returns the current key, empty when unset.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Present reports whether a key is set.
func (s *Store) Present() bool {
	return s.Get() != ""
}

// Masked renders the key for logs and the UI without revealing it.
func (s *Store) Masked() string {
	value := s.Get()
	if value == "" {
		return ""
	}
	if len(value) <= len(Prefix)+4 {
		return Prefix + "****"
	}
	return Prefix + "****" + value[len(value)-4:]
}

// Path returns the backing file, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Set validates and persists the key, then swaps it in.
func (s *Store) Set(key string) error {
	if err := Validate(key); err != nil {
		return err
	}
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeFile(s.path, key); err != nil {
			return err
		}
	}
	s.value = key
	return nil
}

func readFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}

	values := make(map[string]string)
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return values, nil
}

// writeFile replaces the credential file atomically. The key is written to a
// private temp file in the same directory and renamed over the target, so a
// pre-existing file with looser permissions never holds the new key.
func writeFile(path, key string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create credential file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to restrict credential file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(map[string]string{StorageKey: key}); err != nil {
		return fmt.Errorf("failed to encode credential file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to flush credential file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}
