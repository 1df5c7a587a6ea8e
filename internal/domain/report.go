package domain

import "time"

// PeriodStats summarizes the outcome of the crawl
type PeriodStats struct {
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// Report is the final artifact of a completed run
type Report struct {
	RunID       string       `json:"runId"`
	RepoInfo    RepoInfo     `json:"repoInfo"`
	Period      Period       `json:"period"`
	PeriodStats PeriodStats  `json:"periodStats"`
	GeneratedAt time.Time    `json:"generatedAt"`
	PRs         []EnrichedPR `json:"prs"`
	Skipped     []SkippedPR  `json:"skipped"`
}

// NewReport assembles the report from a fully processed state.
// PRs keep processing order, which is not merge-time order.
func NewReport(state *RunState, repo RepoInfo, now time.Time) *Report {
	prs := make([]EnrichedPR, len(state.Results))
	copy(prs, state.Results)
	skipped := make([]SkippedPR, len(state.Skipped))
	copy(skipped, state.Skipped)

	return &Report{
		RunID:    state.RunID,
		RepoInfo: repo,
		Period:   state.Config.Period(),
		PeriodStats: PeriodStats{
			Merged:  len(prs),
			Skipped: len(skipped),
		},
		GeneratedAt: now,
		PRs:         prs,
		Skipped:     skipped,
	}
}
