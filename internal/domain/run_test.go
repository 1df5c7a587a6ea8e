package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() RunConfig {
	return RunConfig{
		Owner:      "octo",
		Name:       "widgets",
		From:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Until:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Credential: "secret",
	}
}

func TestRunConfig_InWindow(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "start of window", at: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "last second of until", at: time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), want: true},
		{name: "day after until", at: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), want: false},
		{name: "before from", at: time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.InWindow(tt.at))
		})
	}
}

func TestRunConfig_SameIdentity(t *testing.T) {
	cfg := testConfig()

	other := cfg
	other.Until = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	other.Owner = "OCTO"
	assert.True(t, cfg.SameIdentity(other), "until and owner case do not change identity")

	other = cfg
	other.From = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, cfg.SameIdentity(other))

	other = cfg
	other.Name = "gadgets"
	assert.False(t, cfg.SameIdentity(other))
}

func TestRunState_CommitAndSkip(t *testing.T) {
	now := time.Now()
	state := NewRunState(testConfig(), now)
	state.SetCandidates([]CandidatePR{{ID: 1, Number: 10}, {ID: 2, Number: 11}, {ID: 3, Number: 12}}, now)

	require.NoError(t, state.Commit(EnrichedPR{ID: 1, Number: 10}, now))
	require.NoError(t, state.Skip(CandidatePR{ID: 2, Number: 11}, "gone", now))

	assert.True(t, state.IsDone(1))
	assert.True(t, state.IsDone(2))
	assert.False(t, state.IsDone(3))
	assert.Equal(t, []CandidatePR{{ID: 3, Number: 12}}, state.Pending())

	assert.Error(t, state.Commit(EnrichedPR{ID: 1}, now), "duplicate commit must be rejected")
	assert.Error(t, state.Commit(EnrichedPR{ID: 2}, now), "skipped ids are never committed")
	assert.NoError(t, state.Validate())
}

func TestRunState_JSONRoundTripKeepsIndex(t *testing.T) {
	now := time.Now().UTC()
	state := NewRunState(testConfig(), now)
	state.SetCandidates([]CandidatePR{{ID: 1}, {ID: 2}}, now)
	require.NoError(t, state.Commit(EnrichedPR{ID: 1, ReviewerLogins: NewReviewerSet("b", "a", "a")}, now))

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret", "credential must not be persisted")

	var loaded RunState
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.NoError(t, loaded.Validate())
	assert.True(t, loaded.IsDone(1))
	assert.Len(t, loaded.Pending(), 1)
	assert.Equal(t, []string{"a", "b"}, loaded.Results[0].ReviewerLogins.Logins())
}

func TestRunState_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		mutate func(s *RunState)
	}{
		{name: "missing result", mutate: func(s *RunState) { s.ProcessedIDs = append(s.ProcessedIDs, 9) }},
		{name: "mismatched id", mutate: func(s *RunState) { s.Results[0].ID = 42 }},
		{name: "skipped and processed", mutate: func(s *RunState) { s.Skipped = append(s.Skipped, SkippedPR{ID: 1}) }},
		{name: "unknown version", mutate: func(s *RunState) { s.Version = 99 }},
		{name: "candidates without discovery", mutate: func(s *RunState) { s.DiscoveredAt = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewRunState(testConfig(), now)
			state.SetCandidates([]CandidatePR{{ID: 1}}, now)
			require.NoError(t, state.Commit(EnrichedPR{ID: 1}, now))
			tt.mutate(state)
			assert.Error(t, state.Validate())
		})
	}
}

func TestReviewerSet_JSON(t *testing.T) {
	set := NewReviewerSet("a", "a", "b", "")
	assert.Equal(t, 2, set.Len())

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	var empty ReviewerSet
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestNewReport_EmptyState(t *testing.T) {
	now := time.Now()
	state := NewRunState(testConfig(), now)
	state.SetCandidates(nil, now)

	report := NewReport(state, RepoInfo{Name: "widgets"}, now)
	assert.NotNil(t, report.PRs)
	assert.Empty(t, report.PRs)
	assert.Equal(t, Period{From: "2024-01-01", Until: "2024-01-31"}, report.Period)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prs":[]`)
}
