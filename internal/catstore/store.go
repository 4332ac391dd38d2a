// Package catstore persists learned narration-to-category mappings so
// repeat merchants skip the remote classifier.
package catstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"finsight/backend/internal/logging"
)

// MappingStore manages loading and saving of narration → category
// mappings. Keys are stored lower-cased for case-insensitive lookup.
type MappingStore struct {
	path    string
	mu      sync.RWMutex
	entries map[string]string
	dirty   bool
	logger  logging.Logger
}

// NewMappingStore creates a store backed by the YAML file at path and
// loads any existing mappings. A missing file is not an error; the
// store starts empty.
func NewMappingStore(path string, logger logging.Logger) *MappingStore {
	if logger == nil {
		logger = logging.GetLogger()
	}

	s := &MappingStore{
		path:    path,
		entries: make(map[string]string),
		logger:  logger,
	}

	if err := s.load(); err != nil {
		s.logger.WithError(err).Warn("Failed to load category mappings")
	}

	return s
}

func (s *MappingStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading mappings file: %w", err)
	}

	var mappings map[string]string
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("error parsing mappings file: %w", err)
	}

	for key, value := range mappings {
		s.entries[strings.ToLower(key)] = value
	}

	s.logger.WithField("count", len(s.entries)).Debug("Loaded category mappings")
	return nil
}

// Lookup returns the learned category for a narration, if one exists.
func (s *MappingStore) Lookup(narration string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, found := s.entries[strings.ToLower(strings.TrimSpace(narration))]
	return category, found
}

// Learn records a narration → category mapping for future lookups.
func (s *MappingStore) Learn(narration, category string) {
	key := strings.ToLower(strings.TrimSpace(narration))
	if key == "" || category == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok && existing == category {
		return
	}
	s.entries[key] = category
	s.dirty = true
}

// Save writes the mappings back to disk if they changed since load.
func (s *MappingStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("error writing mappings: %w", err)
	}

	s.dirty = false
	s.logger.WithField("count", len(s.entries)).Debug("Saved category mappings")
	return nil
}
