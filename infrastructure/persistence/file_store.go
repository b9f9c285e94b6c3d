package persistence

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/utils"
)

// FileStore keeps the snapshot in one JSON document on local disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.GetLogger().WithField("path", s.path).Debug("No snapshot file yet")
		return EmptySnapshot(), nil
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot(s.path, data), nil
}

// Save replaces the file atomically so a crash never leaves a half-written document.
func (s *FileStore) Save(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.WriteFileAtomic(s.path, data, 0o600)
}
