package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
)

// checkpointRow is the only row of the checkpoints table
const checkpointRow = 1

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to open checkpoint database", err)
	}
	db.SetMaxOpenConns(1)

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, apperrors.NewPersistenceError("failed to migrate checkpoint database", err)
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		run_id TEXT NOT NULL,
		run_key TEXT NOT NULL,
		processed INTEGER NOT NULL,
		state TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load returns the stored state, or nil when there is none
func (s *sqliteStorage) Load(ctx context.Context) (*domain.RunState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM checkpoints WHERE id = ?`, checkpointRow).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to read checkpoint", err)
	}

	var state domain.RunState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, apperrors.NewPersistenceError("failed to decode checkpoint", err)
	}
	return &state, nil
}

// Save upserts the checkpoint row in a single transaction
func (s *sqliteStorage) Save(ctx context.Context, state *domain.RunState) error {
	if state == nil {
		return apperrors.NewPersistenceError("refusing to save empty checkpoint", nil)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return apperrors.NewPersistenceError("failed to encode checkpoint", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistenceError("failed to begin checkpoint transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (id, run_id, run_key, processed, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			run_key = excluded.run_key,
			processed = excluded.processed,
			state = excluded.state,
			updated_at = excluded.updated_at
	`, checkpointRow, state.RunID, state.Config.Key(), len(state.ProcessedIDs)+len(state.Skipped), string(raw), time.Now().UTC())
	if err != nil {
		return apperrors.NewPersistenceError("failed to write checkpoint", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistenceError("failed to commit checkpoint", err)
	}
	return nil
}

// Discard deletes the checkpoint row
func (s *sqliteStorage) Discard(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, checkpointRow); err != nil {
		return apperrors.NewPersistenceError(fmt.Sprintf("failed to remove checkpoint row %d", checkpointRow), err)
	}
	return nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
