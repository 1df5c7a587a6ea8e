// Package checkpoint opens the configured checkpoint backend and decides
// whether a stored RunState may be resumed.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kurihiro0119/github-pr-metrics/internal/config"
	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/filestore"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/sqlite"
)

// Open returns the backend selected by CHECKPOINT_BACKEND
func Open(cfg *config.Config) (storage.Storage, error) {
	switch cfg.CheckpointBackend {
	case config.BackendFile, "":
		return filestore.NewFileStorage(cfg.CheckpointPath()), nil
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return sqlite.NewSQLiteStorage(cfg.SQLitePath())
	default:
		return nil, fmt.Errorf("unknown checkpoint backend: %s", cfg.CheckpointBackend)
	}
}

// Resume loads the stored state for cfg. It returns a fresh state when
// nothing is stored or the stored run has another identity; the stale
// checkpoint is discarded in the latter case. A stored state that fails
// validation is a persistence error and stays on disk.
func Resume(ctx context.Context, store storage.Storage, cfg domain.RunConfig, now time.Time) (*domain.RunState, bool, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if state == nil {
		return domain.NewRunState(cfg, now), false, nil
	}

	if !state.Config.SameIdentity(cfg) {
		mismatch := apperrors.NewConfigMismatchError(state.Config.Key(), cfg.Key())
		log.WithError(mismatch).WithField("runId", state.RunID).Warn("Discarding checkpoint of another run")
		if err := store.Discard(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to discard stale checkpoint: %w", err)
		}
		return domain.NewRunState(cfg, now), false, nil
	}

	if err := state.Validate(); err != nil {
		return nil, false, apperrors.NewPersistenceError("checkpoint is inconsistent", err)
	}

	if !state.Config.Until.Equal(cfg.Until) {
		log.WithFields(log.Fields{
			"runId":          state.RunID,
			"storedUntil":    state.Config.Until.Format(domain.DateLayout),
			"requestedUntil": cfg.Until.Format(domain.DateLayout),
		}).Warn("Resumed run keeps the until date it started with; reset to change it")
	}

	state.Config.Credential = cfg.Credential
	log.WithFields(log.Fields{
		"runId":      state.RunID,
		"repository": state.Config.FullName(),
		"candidates": len(state.Candidates),
		"processed":  len(state.ProcessedIDs),
		"skipped":    len(state.Skipped),
	}).Info("Resuming from checkpoint")

	return state, true, nil
}

// Status loads the stored state without validating it against a run
func Status(ctx context.Context, store storage.Storage) (domain.CrawlStatus, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return domain.CrawlStatus{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return domain.StatusOf(state), nil
}
