// Package storagetest holds the behaviour every checkpoint backend shares.
package storagetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
)

// SampleState returns a state with one processed and one skipped candidate
func SampleState(t *testing.T) *domain.RunState {
	t.Helper()

	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	merged := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	cfg := domain.RunConfig{
		Owner:      "octo",
		Name:       "widgets",
		From:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Until:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Credential: "secret",
	}

	state := domain.NewRunState(cfg, now)
	state.SetCandidates([]domain.CandidatePR{
		{ID: 1, Number: 11, Title: "first", Author: "a", MergedAt: &merged, UpdatedAt: merged, CreatedAt: merged.Add(-time.Hour)},
		{ID: 2, Number: 12, Title: "second", Author: "b", MergedAt: &merged, UpdatedAt: merged, CreatedAt: merged.Add(-time.Hour)},
		{ID: 3, Number: 13, Title: "third", Author: "c", MergedAt: &merged, UpdatedAt: merged, CreatedAt: merged.Add(-time.Hour)},
	}, now)
	require.NoError(t, state.Commit(domain.EnrichedPR{
		ID: 1, Number: 11, Title: "first", Author: "a", Size: 12, CommitCount: 2,
		MergeTimeHours: 1, LeadTimeHours: 3, Month: "2024-01",
		ReviewerLogins: domain.NewReviewerSet("r1", "r2"),
	}, now))
	require.NoError(t, state.Skip(state.Candidates[1], "pull request #12 not found", now))
	return state
}

func requireSameState(t *testing.T, want, got *domain.RunState) {
	t.Helper()

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

// Run exercises a backend through the Storage contract. newStorage must
// return an empty backend.
func Run(t *testing.T, newStorage func(t *testing.T) storage.Storage) {
	ctx := context.Background()

	t.Run("load without checkpoint", func(t *testing.T) {
		s := newStorage(t)
		state, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("save and load", func(t *testing.T) {
		s := newStorage(t)
		want := SampleState(t)
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		requireSameState(t, want, got)
		assert.Empty(t, got.Config.Credential, "credential must not be persisted")
		assert.True(t, got.IsDone(1))
		assert.True(t, got.IsDone(2))
		assert.False(t, got.IsDone(3))
		assert.NoError(t, got.Validate())
	})

	t.Run("save replaces previous snapshot", func(t *testing.T) {
		s := newStorage(t)
		state := SampleState(t)
		require.NoError(t, s.Save(ctx, state))

		require.NoError(t, state.Commit(domain.EnrichedPR{ID: 3, Number: 13, Month: "2024-01"}, state.UpdatedAt))
		require.NoError(t, s.Save(ctx, state))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		requireSameState(t, state, got)
		assert.Len(t, got.Results, 2)
	})

	t.Run("discard is idempotent", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Discard(ctx))
		require.NoError(t, s.Save(ctx, SampleState(t)))
		require.NoError(t, s.Discard(ctx))
		require.NoError(t, s.Discard(ctx))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil state is rejected", func(t *testing.T) {
		s := newStorage(t)
		assert.Error(t, s.Save(ctx, nil))
	})
}
