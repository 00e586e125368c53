package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const cacheFileExtension = ".json"

// Default cache settings.
const (
	// DefaultTTLSeconds keeps entries for 30 days.
	DefaultTTLSeconds = 30 * 24 * 3600

	// MinTTLSeconds is the smallest accepted TTL.
	MinTTLSeconds = 60
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
	ErrInvalidTTL      = fmt.Errorf("cache TTL must be at least %d seconds", MinTTLSeconds)
)

// FileStore keeps cache entries as JSON files in one directory.
// Safe for concurrent use.
type FileStore struct {
	directory  string
	enabled    bool
	ttlSeconds int

	mu sync.RWMutex
}

// NewFileStore creates a store rooted at directory, creating it if needed.
// A disabled store answers every call with ErrCacheDisabled.
func NewFileStore(directory string, enabled bool, ttlSeconds int) (*FileStore, error) {
	if !enabled {
		return &FileStore{enabled: false}, nil
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if ttlSeconds < MinTTLSeconds {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTTL, ttlSeconds)
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{directory: directory, enabled: true, ttlSeconds: ttlSeconds}, nil
}

// IsEnabled reports whether the store is active.
func (s *FileStore) IsEnabled() bool {
	return s != nil && s.enabled
}

// Directory returns the cache directory.
func (s *FileStore) Directory() string {
	return s.directory
}

// Get returns the entry stored under key.
func (s *FileStore) Get(key string) (*Entry, error) {
	if !s.IsEnabled() {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.keyToFilePath(key))
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if entry.IsExpired() {
		_ = s.Delete(key)
		return nil, ErrCacheExpired
	}
	return &entry, nil
}

// Set stores data under key, replacing any previous entry.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if !s.IsEnabled() {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	entryData, err := json.MarshalIndent(NewEntry(key, data, s.ttlSeconds), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.keyToFilePath(key)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, entryData, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// GetJSON decodes the entry stored under key into v.
func (s *FileStore) GetJSON(key string, v any) error {
	entry, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(entry.Data, v); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func (s *FileStore) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return s.Set(key, data)
}

// Delete removes the entry under key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if !s.IsEnabled() {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyToFilePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes every entry. When expiredOnly is set, live entries are kept.
// It returns the number of files removed.
func (s *FileStore) Clear(expiredOnly bool) (int, error) {
	if !s.IsEnabled() {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != cacheFileExtension {
			continue
		}
		path := filepath.Join(s.directory, de.Name())
		if expiredOnly {
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				continue
			}
			var entry Entry
			if json.Unmarshal(data, &entry) == nil && !entry.IsExpired() {
				continue
			}
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove cache file %s: %w", de.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Count returns the number of cache files.
func (s *FileStore) Count() (int, error) {
	if !s.IsEnabled() {
		return 0, ErrCacheDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}
	count := 0
	for _, de := range entries {
		if !de.IsDir() && filepath.Ext(de.Name()) == cacheFileExtension {
			count++
		}
	}
	return count, nil
}

func (s *FileStore) keyToFilePath(key string) string {
	safeKey := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safeKey+cacheFileExtension)
}
