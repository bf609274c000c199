// Package store provides persistence for trusted roots and the auto-accept
// ledger.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when an entry is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a duplicate entry.
	ErrAlreadyExists = errors.New("already exists")
)

// trustData represents the JSON file structure.
type trustData struct {
	Roots []string `json:"roots"`
}

// TrustStore persists trusted roots as a JSON file.
type TrustStore struct {
	mu   sync.RWMutex
	path string
	data *trustData
}

// NewTrustStore opens (or creates) the trust store at path.
func NewTrustStore(path string) (*TrustStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	s := &TrustStore{
		path: path,
		data: &trustData{Roots: []string{}},
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *TrustStore) load() error {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, s.data)
}

func (s *TrustStore) save() error {
	content, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, content, 0644)
}

// Roots returns all trusted roots sorted lexically.
func (s *TrustStore) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.data.Roots))
	copy(result, s.data.Roots)
	sort.Strings(result)
	return result
}

// Has reports whether root is already trusted. Paths are compared cleaned.
func (s *TrustStore) Has(root string) bool {
	root = filepath.Clean(root)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data.Roots {
		if filepath.Clean(r) == root {
			return true
		}
	}
	return false
}

// Add records a new trusted root and persists immediately.
func (s *TrustStore) Add(root string) error {
	root = filepath.Clean(root)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.Roots {
		if filepath.Clean(r) == root {
			return ErrAlreadyExists
		}
	}
	s.data.Roots = append(s.data.Roots, root)
	return s.save()
}

// Remove deletes a trusted root and persists immediately.
func (s *TrustStore) Remove(root string) error {
	root = filepath.Clean(root)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.data.Roots {
		if filepath.Clean(r) == root {
			s.data.Roots = append(s.data.Roots[:i], s.data.Roots[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}
