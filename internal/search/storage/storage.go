package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store handles on-disk caching of search results
type Store struct {
	dataDir string
}

// NewStore creates a new storage instance
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
	}
}

// Key returns the file-safe cache entry name for a page of a composed query
func Key(dialect, query string, page Page) string {
	sum := sha256.Sum256([]byte(dialect + "\x00" + query))
	return fmt.Sprintf("%s-%s-%d-%d", strings.ToLower(dialect), hex.EncodeToString(sum[:8]), page.Start, page.Limit)
}

// Fresh reports whether the entry was fetched less than ttl before now. A zero ttl disables the cache.
func (c *CachedQuery) Fresh(now time.Time, ttl time.Duration) bool {
	if c == nil || ttl <= 0 {
		return false
	}
	return now.Sub(c.LastFetched) < ttl
}

// ensureDataDir creates the data directory if it doesn't exist
func (s *Store) ensureDataDir() error {
	return os.MkdirAll(s.dataDir, 0755)
}

// entryFilePath returns the file path for a given entry name
func (s *Store) entryFilePath(name string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s.yaml", name))
}

// Save stores a page of results
func (s *Store) Save(entry CachedQuery) error {
	if err := s.ensureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	filePath := s.entryFilePath(Key(entry.Dialect, entry.Query, entry.Page))

	data, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached query: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Load loads a cached page; it returns nil without an error when nothing is cached
func (s *Store) Load(dialect, query string, page Page) (*CachedQuery, error) {
	return s.loadEntry(Key(dialect, query, page))
}

func (s *Store) loadEntry(name string) (*CachedQuery, error) {
	data, err := os.ReadFile(s.entryFilePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry CachedQuery
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached query: %w", err)
	}

	return &entry, nil
}

// List returns all cache entries with their details, skipping unreadable ones
func (s *Store) List() ([]CachedQueryItem, error) {
	names, err := s.entryNames()
	if err != nil {
		return nil, err
	}

	var items []CachedQueryItem
	for _, name := range names {
		entry, err := s.loadEntry(name)
		if err != nil || entry == nil {
			continue
		}
		items = append(items, CachedQueryItem{
			Name:        name,
			Dialect:     entry.Dialect,
			Query:       entry.Query,
			LastFetched: entry.LastFetched,
			ResultCount: len(entry.Results),
		})
	}

	return items, nil
}

// Delete removes a cache entry by name
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.entryFilePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}

	return nil
}

// Purge removes every cache entry and returns how many were removed
func (s *Store) Purge() (int, error) {
	names, err := s.entryNames()
	if err != nil {
		return 0, err
	}

	for i, name := range names {
		if err := s.Delete(name); err != nil {
			return i, err
		}
	}

	return len(names), nil
}

func (s *Store) entryNames() ([]string, error) {
	if err := s.ensureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}

	return names, nil
}

// GetDataDir returns the data directory path
func (s *Store) GetDataDir() string {
	return s.dataDir
}
