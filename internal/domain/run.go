package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date layout used for run windows
const DateLayout = "2006-01-02"

// CheckpointVersion is bumped whenever the RunState layout changes incompatibly
const CheckpointVersion = 1

// RunConfig identifies one crawl. Owner/Name and From form its identity;
// a checkpoint is only reused by a run with the same identity.
type RunConfig struct {
	Owner string    `json:"owner"`
	Name  string    `json:"name"`
	From  time.Time `json:"from"`
	Until time.Time `json:"until"`

	// Credential is never written to disk
	Credential string `json:"-"`
}

// FullName returns owner/name
func (c RunConfig) FullName() string {
	return c.Owner + "/" + c.Name
}

// Key returns the identity key of the run
func (c RunConfig) Key() string {
	return strings.ToLower(c.FullName()) + "@" + c.From.Format(DateLayout)
}

// SameIdentity reports whether both configs address the same crawl
func (c RunConfig) SameIdentity(other RunConfig) bool {
	return c.Key() == other.Key()
}

// WindowStart is the first instant of the merge window
func (c RunConfig) WindowStart() time.Time {
	return c.From
}

// WindowEnd is the last instant of the merge window; Until is inclusive
func (c RunConfig) WindowEnd() time.Time {
	return c.Until.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// InWindow reports whether t falls within [From, end of Until]
func (c RunConfig) InWindow(t time.Time) bool {
	return !t.Before(c.WindowStart()) && !t.After(c.WindowEnd())
}

// Period returns the window as calendar dates
func (c RunConfig) Period() Period {
	return Period{
		From:  c.From.Format(DateLayout),
		Until: c.Until.Format(DateLayout),
	}
}

// RunState is the unit of checkpointing.
//
// ProcessedIDs and Results correspond one to one, in processing order.
// Skipped candidates are tracked separately so that they are never retried
// and never appear in Results.
type RunState struct {
	Version      int           `json:"version"`
	RunID        string        `json:"runId"`
	Config       RunConfig     `json:"config"`
	DiscoveredAt *time.Time    `json:"discoveredAt,omitempty"`
	Candidates   []CandidatePR `json:"candidates"`
	ProcessedIDs []int64       `json:"processedIds"`
	Results      []EnrichedPR  `json:"results"`
	Skipped      []SkippedPR   `json:"skipped"`
	StartedAt    time.Time     `json:"startedAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	done map[int64]struct{}
}

// NewRunState creates an empty state for cfg
func NewRunState(cfg RunConfig, now time.Time) *RunState {
	return &RunState{
		Version:      CheckpointVersion,
		RunID:        uuid.New().String(),
		Config:       cfg,
		Candidates:   []CandidatePR{},
		ProcessedIDs: []int64{},
		Results:      []EnrichedPR{},
		Skipped:      []SkippedPR{},
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

// Discovered reports whether range discovery already ran for this state
func (s *RunState) Discovered() bool {
	return s.DiscoveredAt != nil
}

// SetCandidates stores the discovery result
func (s *RunState) SetCandidates(candidates []CandidatePR, now time.Time) {
	if candidates == nil {
		candidates = []CandidatePR{}
	}
	s.Candidates = candidates
	s.DiscoveredAt = &now
	s.UpdatedAt = now
}

// IsDone reports whether the candidate id was either processed or skipped
func (s *RunState) IsDone(id int64) bool {
	s.index()
	_, ok := s.done[id]
	return ok
}

// Pending returns the candidates not yet processed or skipped, in discovery order
func (s *RunState) Pending() []CandidatePR {
	var pending []CandidatePR
	for _, c := range s.Candidates {
		if !s.IsDone(c.ID) {
			pending = append(pending, c)
		}
	}
	return pending
}

// Commit records a successfully enriched pull request
func (s *RunState) Commit(pr EnrichedPR, now time.Time) error {
	if s.IsDone(pr.ID) {
		return fmt.Errorf("pull request %d already processed", pr.ID)
	}
	s.ProcessedIDs = append(s.ProcessedIDs, pr.ID)
	s.Results = append(s.Results, pr)
	s.done[pr.ID] = struct{}{}
	s.UpdatedAt = now
	return nil
}

// Skip records a candidate that will never be enriched
func (s *RunState) Skip(c CandidatePR, reason string, now time.Time) error {
	if s.IsDone(c.ID) {
		return fmt.Errorf("pull request %d already processed", c.ID)
	}
	s.Skipped = append(s.Skipped, SkippedPR{ID: c.ID, Number: c.Number, Reason: reason})
	s.done[c.ID] = struct{}{}
	s.UpdatedAt = now
	return nil
}

// Validate checks the internal consistency of a loaded state
func (s *RunState) Validate() error {
	if s.Version != CheckpointVersion {
		return fmt.Errorf("unsupported checkpoint version %d", s.Version)
	}
	if len(s.ProcessedIDs) != len(s.Results) {
		return fmt.Errorf("%d processed ids but %d results", len(s.ProcessedIDs), len(s.Results))
	}
	seen := make(map[int64]struct{}, len(s.ProcessedIDs)+len(s.Skipped))
	for i, id := range s.ProcessedIDs {
		if s.Results[i].ID != id {
			return fmt.Errorf("result %d has id %d, expected %d", i, s.Results[i].ID, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("pull request %d processed twice", id)
		}
		seen[id] = struct{}{}
	}
	for _, sk := range s.Skipped {
		if _, dup := seen[sk.ID]; dup {
			return fmt.Errorf("pull request %d both processed and skipped", sk.ID)
		}
		seen[sk.ID] = struct{}{}
	}
	if !s.Discovered() && len(s.Candidates) > 0 {
		return fmt.Errorf("candidates present without discovery timestamp")
	}
	return nil
}

func (s *RunState) index() {
	if s.done != nil {
		return
	}
	s.done = make(map[int64]struct{}, len(s.ProcessedIDs)+len(s.Skipped))
	for _, id := range s.ProcessedIDs {
		s.done[id] = struct{}{}
	}
	for _, sk := range s.Skipped {
		s.done[sk.ID] = struct{}{}
	}
}
