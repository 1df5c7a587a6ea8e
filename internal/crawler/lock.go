package crawler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another crawl holds the data directory
var ErrLocked = errors.New("another crawl is running against this data directory")

// Lock is an exclusive, process-wide lock on a data directory
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock file at path without blocking
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and closes the lock file
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
