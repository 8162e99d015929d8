package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yolodolo42/erdwallet/internal/logging"
	"go.uber.org/zap"
)

const (
	storeFileName = "store.json"
	corruptSuffix = ".corrupt"
	filePerms     = 0600 // Owner read/write only
)

// FileStore keeps all keys in a single JSON object on disk.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]string
	logger   *zap.Logger
}

// OpenFile creates dataDir if needed and loads dataDir/store.json. A file
// that cannot be parsed is moved aside to store.json.corrupt and the store
// starts empty; read and permission errors are still ErrUnavailable.
func OpenFile(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, unavailable("create data directory", err)
	}

	s := &FileStore{
		filePath: filepath.Join(dataDir, storeFileName),
		data:     make(map[string]string),
		logger:   logging.OrNop(logger),
	}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, unavailable("load store", err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return s.quarantine(raw, err)
	}
	// data is never nil, even for a file containing "null".
	if data == nil {
		data = make(map[string]string)
	}
	s.data = data
	return nil
}

// quarantine moves an unparseable store file out of the way so the next
// save starts from an empty map. Must be called with mu held.
func (s *FileStore) quarantine(raw []byte, parseErr error) error {
	aside := s.filePath + corruptSuffix
	if err := os.Rename(s.filePath, aside); err != nil {
		return fmt.Errorf("move corrupt store file: %w", err)
	}
	s.logger.Warn("store file is unreadable, starting empty",
		zap.Error(parseErr),
		zap.String("moved_to", aside),
		zap.String("payload", logging.RedactJSON(string(raw))),
	)
	s.data = make(map[string]string)
	return nil
}

// save must be called with mu held.
func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, filePerms); err != nil {
		return unavailable("write store file", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return unavailable("replace store file", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.save(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
