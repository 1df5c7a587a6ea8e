package domain

import "time"

// PRDetail is an enriched pull request with derived display fields
type PRDetail struct {
	EnrichedPR
	ReviewCount int `json:"reviewCount"`
}

// Summary holds whole-period aggregates
type Summary struct {
	Merged          int     `json:"merged"`
	AvgSize         float64 `json:"avgSize"`
	AvgTtm          float64 `json:"avgTtm"`
	AvgLeadTime     float64 `json:"avgLeadTime"`
	MedianTtm       float64 `json:"medianTtm"`
	P90Ttm          float64 `json:"p90Ttm"`
	MedianLeadTime  float64 `json:"medianLeadTime"`
	AvgCommentCount float64 `json:"avgComments"`
}

// MonthlyStats aggregates the pull requests merged in one month
type MonthlyStats struct {
	Month        string  `json:"month"`
	Count        int     `json:"count"`
	AvgSize      float64 `json:"avgSize"`
	MinSize      int     `json:"minSize"`
	MaxSize      int     `json:"maxSize"`
	AvgTtm       float64 `json:"avgTtm"`
	AvgLeadTime  float64 `json:"avgLeadTime"`
	AvgComments  float64 `json:"avgComments"`
	AvgReviewers float64 `json:"avgReviewers"`
}

// MergerRank is an author ranked by merged pull requests
type MergerRank struct {
	Login   string  `json:"login"`
	Merged  int     `json:"merged"`
	AvgTime float64 `json:"avgTime"`
}

// ReviewerRank is a reviewer ranked by reviewed pull requests
type ReviewerRank struct {
	Login string `json:"login"`
	Count int    `json:"count"`
}

// Rankings groups the author and reviewer leaderboards
type Rankings struct {
	Mergers   []MergerRank   `json:"mergers"`
	Reviewers []ReviewerRank `json:"reviewers"`
}

// Outliers points at the extreme pull requests of the period
type Outliers struct {
	Slowest      *PRDetail `json:"slowest,omitempty"`
	Biggest      *PRDetail `json:"biggest,omitempty"`
	MostComments *PRDetail `json:"mostComments,omitempty"`
}

// ScatterPoint is one size / merge time sample
type ScatterPoint struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Stats is the display-ready aggregation of a report
type Stats struct {
	RepoInfo     RepoInfo       `json:"repoInfo"`
	Period       Period         `json:"period"`
	GeneratedAt  time.Time      `json:"generatedAt"`
	Summary      Summary        `json:"summary"`
	MonthlyStats []MonthlyStats `json:"monthlyStats"`
	Rankings     Rankings       `json:"rankings"`
	Outliers     Outliers       `json:"outliers"`
	ScatterData  []ScatterPoint `json:"scatterData"`
}

// CrawlStatus describes the progress stored in a checkpoint
type CrawlStatus struct {
	Active     bool       `json:"active"`
	RunID      string     `json:"runId,omitempty"`
	Repository string     `json:"repository,omitempty"`
	Period     *Period    `json:"period,omitempty"`
	Discovered bool       `json:"discovered"`
	Candidates int        `json:"candidates"`
	Processed  int        `json:"processed"`
	Skipped    int        `json:"skipped"`
	Remaining  int        `json:"remaining"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// StatusOf summarizes a checkpointed state; a nil state is an idle crawl
func StatusOf(state *RunState) CrawlStatus {
	if state == nil {
		return CrawlStatus{}
	}
	period := state.Config.Period()
	started, updated := state.StartedAt, state.UpdatedAt
	return CrawlStatus{
		Active:     true,
		RunID:      state.RunID,
		Repository: state.Config.FullName(),
		Period:     &period,
		Discovered: state.Discovered(),
		Candidates: len(state.Candidates),
		Processed:  len(state.Results),
		Skipped:    len(state.Skipped),
		Remaining:  len(state.Pending()),
		StartedAt:  &started,
		UpdatedAt:  &updated,
	}
}
