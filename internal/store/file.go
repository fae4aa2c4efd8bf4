package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileStore persists entries as a JSON object in a single file
type FileStore struct {
	path   string
	logger *logrus.Logger
	mu     sync.RWMutex
}

// NewFileStore creates a file-backed store; the file is created on first write
func NewFileStore(path string, logger *logrus.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store file path is required")
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Get returns the value stored under key
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := f.readUnsafe()
	if err != nil {
		return "", false, err
	}
	value, ok := entries[key]
	return value, ok, nil
}

// Set stores value under key
func (f *FileStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readUnsafe()
	if err != nil {
		return err
	}
	entries[key] = value
	return f.writeUnsafe(entries)
}

// Delete removes key; deleting a missing key is not an error
func (f *FileStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readUnsafe()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.writeUnsafe(entries)
}

// Close is a no-op for file stores
func (f *FileStore) Close() error {
	return nil
}

// readUnsafe loads all entries (caller must hold lock)
func (f *FileStore) readUnsafe() (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", f.path, err)
	}
	return entries, nil
}

// writeUnsafe saves all entries (caller must hold lock)
func (f *FileStore) writeUnsafe(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store entries: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// Write to a temporary file then rename for atomic operation
	tempFile := f.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}

	if err := os.Rename(tempFile, f.path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename store file: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"component":   "file_store",
		"store_file":  f.path,
		"entry_count": len(entries),
	}).Debug("Store file written")

	return nil
}
