package storage

import (
	"context"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
)

// Storage is the abstract interface for the checkpoint layer.
//
// A backend holds at most one RunState. Save must be atomic with respect to
// process termination: after a crash, Load returns either the previous
// snapshot or the new one, never a mix.
type Storage interface {
	// Load returns the stored state, or nil when there is none
	Load(ctx context.Context) (*domain.RunState, error)

	// Save replaces the stored state
	Save(ctx context.Context, state *domain.RunState) error

	// Discard removes the stored state. It is a no-op when there is none.
	Discard(ctx context.Context) error

	// Connection management
	Close() error
}
