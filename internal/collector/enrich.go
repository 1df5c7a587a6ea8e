package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/sync/errgroup"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

// Enricher fetches and derives the metrics of one pull request
type Enricher struct {
	collector Collector
}

// NewEnricher creates a new enricher
func NewEnricher(c Collector) *Enricher {
	return &Enricher{collector: c}
}

// Enrich fetches detail, reviews, commits and comments concurrently and
// derives the record once all four have arrived. Any failure fails the
// whole enrichment and cancels the other requests.
func (e *Enricher) Enrich(ctx context.Context, cfg domain.RunConfig, candidate domain.CandidatePR) (domain.EnrichedPR, error) {
	var (
		detail   *github.PullRequest
		reviews  []*github.PullRequestReview
		commits  []*github.RepositoryCommit
		comments []*github.IssueComment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = e.collector.GetPullRequest(gctx, cfg.Owner, cfg.Name, candidate.Number)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = e.collector.ListReviews(gctx, cfg.Owner, cfg.Name, candidate.Number)
		return err
	})
	g.Go(func() error {
		var err error
		commits, err = e.collector.ListCommits(gctx, cfg.Owner, cfg.Name, candidate.Number)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = e.collector.ListIssueComments(gctx, cfg.Owner, cfg.Name, candidate.Number)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EnrichedPR{}, fmt.Errorf("failed to enrich pull request #%d: %w", candidate.Number, err)
	}

	return Derive(candidate, detail, reviews, commits, comments)
}

// Derive computes the enriched record from the fetched data.
//
// Lead time is measured from the author date of the first listed commit,
// falling back to the creation date when the commit list is empty or the
// first commit carries no usable date.
func Derive(
	candidate domain.CandidatePR,
	detail *github.PullRequest,
	reviews []*github.PullRequestReview,
	commits []*github.RepositoryCommit,
	comments []*github.IssueComment,
) (domain.EnrichedPR, error) {
	what := fmt.Sprintf("pull request #%d", candidate.Number)
	if detail == nil {
		return domain.EnrichedPR{}, apperrors.NewNotFoundError(what, nil)
	}

	var mergedAt time.Time
	switch {
	case detail.MergedAt != nil && !detail.MergedAt.IsZero():
		mergedAt = detail.MergedAt.Time
	case candidate.IsMerged():
		mergedAt = *candidate.MergedAt
	default:
		return domain.EnrichedPR{}, apperrors.NewNotFoundError("merge of "+what, nil)
	}

	createdAt := detail.GetCreatedAt().Time
	if createdAt.IsZero() {
		createdAt = candidate.CreatedAt
	}
	firstCommitAt, ok := firstCommitDate(commits)
	if !ok {
		firstCommitAt = createdAt
	}

	reviewers := domain.NewReviewerSet()
	for _, r := range reviews {
		if r != nil {
			reviewers.Add(r.GetUser().GetLogin())
		}
	}

	return domain.EnrichedPR{
		ID:             candidate.ID,
		Number:         candidate.Number,
		Title:          firstNonEmpty(detail.GetTitle(), candidate.Title),
		Author:         firstNonEmpty(detail.GetUser().GetLogin(), candidate.Author),
		Size:           detail.GetAdditions() + detail.GetDeletions(),
		CommitCount:    len(commits),
		MergeTimeHours: mergedAt.Sub(createdAt).Hours(),
		LeadTimeHours:  mergedAt.Sub(firstCommitAt).Hours(),
		Month:          mergedAt.UTC().Format(domain.MonthLayout),
		CommentCount:   len(comments),
		URL:            firstNonEmpty(detail.GetHTMLURL(), candidate.URL),
		ReviewerLogins: reviewers,
	}, nil
}

func firstCommitDate(commits []*github.RepositoryCommit) (time.Time, bool) {
	if len(commits) == 0 || commits[0] == nil || commits[0].Commit == nil {
		return time.Time{}, false
	}
	author := commits[0].Commit.Author
	if author == nil || author.Date == nil || author.Date.IsZero() {
		return time.Time{}, false
	}
	return author.Date.Time, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
