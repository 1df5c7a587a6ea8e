package domain

import "time"

// MonthLayout is the layout of the month bucket of an enriched pull request
const MonthLayout = "2006-01"

// CandidatePR is a closed pull request found by range discovery.
// It is only persisted inside the checkpoint.
type CandidatePR struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	MergedAt  *time.Time `json:"mergedAt,omitempty"`
}

// IsMerged reports whether the candidate carries a merge timestamp
func (c CandidatePR) IsMerged() bool {
	return c.MergedAt != nil && !c.MergedAt.IsZero()
}

// EnrichedPR is the per pull request record written to the report
type EnrichedPR struct {
	ID             int64       `json:"id"`
	Number         int         `json:"number"`
	Title          string      `json:"title"`
	Author         string      `json:"author"`
	Size           int         `json:"size"`
	CommitCount    int         `json:"commitCount"`
	MergeTimeHours float64     `json:"mergeTimeHours"`
	LeadTimeHours  float64     `json:"leadTimeHours"`
	Month          string      `json:"month"`
	CommentCount   int         `json:"commentCount"`
	URL            string      `json:"url"`
	ReviewerLogins ReviewerSet `json:"reviewerLogins"`
}

// SkippedPR records a candidate that could no longer be retrieved.
// Skipped candidates are never retried and never counted as merged.
type SkippedPR struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Reason string `json:"reason"`
}
