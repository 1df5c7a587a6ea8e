package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/jsonfile"
)

// fileStorage keeps the checkpoint as one JSON snapshot on disk
type fileStorage struct {
	path string
}

// NewFileStorage creates a checkpoint storage backed by the file at path
func NewFileStorage(path string) storage.Storage {
	return &fileStorage{path: path}
}

// Load reads the snapshot. A missing file is not an error.
func (s *fileStorage) Load(ctx context.Context) (*domain.RunState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state domain.RunState
	err := jsonfile.Read(s.path, &state)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to read checkpoint "+s.path, err)
	}
	return &state, nil
}

// Save atomically replaces the snapshot
func (s *fileStorage) Save(ctx context.Context, state *domain.RunState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return apperrors.NewPersistenceError("refusing to save empty checkpoint", nil)
	}

	if err := jsonfile.WriteAtomic(s.path, state); err != nil {
		return apperrors.NewPersistenceError("failed to write checkpoint "+s.path, err)
	}
	return nil
}

// Discard removes the snapshot
func (s *fileStorage) Discard(ctx context.Context) error {
	err := os.Remove(s.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return apperrors.NewPersistenceError(fmt.Sprintf("failed to remove checkpoint %s", s.path), err)
}

// Close is a no-op; the store holds no open handles
func (s *fileStorage) Close() error {
	return nil
}
