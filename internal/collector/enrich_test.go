package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-pr-metrics/internal/collector"
	ct "github.com/kurihiro0119/github-pr-metrics/internal/collector/collectortest"
	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

func metricsUpstream(t0 time.Time) *ct.Upstream {
	pr := ct.PR(900, 9, t0, t0.Add(10*time.Hour), ct.Ptr(t0.Add(10*time.Hour)))
	pr.Additions = github.Int(50)
	pr.Deletions = github.Int(10)
	pr.User = &github.User{Login: github.String("octocat")}

	return &ct.Upstream{PRs: []ct.UpstreamPR{{
		PR:       pr,
		Reviews:  ct.Reviews("a", "a", "b"),
		Commits:  ct.Commits(t0.Add(-2*time.Hour), t0.Add(-time.Hour), t0),
		Comments: ct.Comments(4),
	}}}
}

func candidateOf(t *testing.T, fake *ct.Fake) domain.CandidatePR {
	found, err := collector.NewDiscoverer(fake, collector.DiscoveryOptions{}).Discover(context.Background(), januaryWindow())
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0]
}

func TestEnrich_DerivedMetrics(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	fake := ct.New(metricsUpstream(t0))

	pr, err := collector.NewEnricher(fake).Enrich(context.Background(), januaryWindow(), candidateOf(t, fake))
	require.NoError(t, err)

	assert.Equal(t, int64(900), pr.ID)
	assert.Equal(t, 9, pr.Number)
	assert.Equal(t, 60, pr.Size)
	assert.Equal(t, 3, pr.CommitCount)
	assert.InDelta(t, 10.0, pr.MergeTimeHours, 1e-9)
	assert.InDelta(t, 12.0, pr.LeadTimeHours, 1e-9)
	assert.Equal(t, domain.NewReviewerSet("a", "b"), pr.ReviewerLogins)
	assert.Equal(t, 4, pr.CommentCount)
	assert.Equal(t, "2024-01", pr.Month)
	assert.Equal(t, "octocat", pr.Author)

	for _, op := range []string{ct.OpGetPR, ct.OpListReviews, ct.OpListCommits, ct.OpListComments} {
		assert.Equal(t, 1, fake.CallsFor(op, 9), op)
	}
}

func TestDerive_LeadTimeFallsBackToCreation(t *testing.T) {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	merged := created.Add(5 * time.Hour)
	detail := ct.PR(1, 1, created, merged, &merged)
	candidate := domain.CandidatePR{ID: 1, Number: 1, MergedAt: &merged}

	tests := []struct {
		name    string
		commits []*github.RepositoryCommit
	}{
		{name: "no commits", commits: nil},
		{name: "commit without payload", commits: []*github.RepositoryCommit{{}}},
		{name: "commit without author", commits: []*github.RepositoryCommit{{Commit: &github.Commit{}}}},
		{name: "author without date", commits: []*github.RepositoryCommit{{Commit: &github.Commit{Author: &github.CommitAuthor{}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr, err := collector.Derive(candidate, detail, nil, tt.commits, nil)
			require.NoError(t, err)
			assert.InDelta(t, 5.0, pr.LeadTimeHours, 1e-9)
			assert.InDelta(t, pr.MergeTimeHours, pr.LeadTimeHours, 1e-9)
			assert.Equal(t, 0, pr.Size, "missing additions and deletions count as zero")
		})
	}
}

func TestDerive_UsesCandidateMergeWhenDetailLacksIt(t *testing.T) {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	merged := created.Add(time.Hour)
	detail := ct.PR(1, 1, created, merged, nil)

	pr, err := collector.Derive(domain.CandidatePR{ID: 1, Number: 1, MergedAt: &merged}, detail, nil, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pr.MergeTimeHours, 1e-9)

	_, err = collector.Derive(domain.CandidatePR{ID: 1, Number: 1}, detail, nil, nil, nil)
	assert.True(t, apperrors.IsNotFound(err))

	var zero time.Time
	_, err = collector.Derive(domain.CandidatePR{ID: 1, Number: 1, MergedAt: &zero}, detail, nil, nil, nil)
	assert.True(t, apperrors.IsNotFound(err), "a zero merge timestamp is not a merge")
}

func TestEnrich_AnyFailureFailsWhole(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(f *ct.Fake)
		check func(err error) bool
	}{
		{
			name: "detail gone",
			setup: func(f *ct.Fake) {
				f.GetPullRequestFunc = func(context.Context, int) (*github.PullRequest, error) {
					return nil, ct.NotFound("pull request #9")
				}
			},
			check: apperrors.IsNotFound,
		},
		{
			name: "reviews server error",
			setup: func(f *ct.Fake) {
				f.ListReviewsFunc = func(context.Context, int) ([]*github.PullRequestReview, error) {
					return nil, ct.ServerError("reviews of #9")
				}
			},
			check: apperrors.IsTransient,
		},
		{
			name: "comments rate limited",
			setup: func(f *ct.Fake) {
				f.ListIssueCommentsFunc = func(context.Context, int) ([]*github.IssueComment, error) {
					return nil, ct.RateLimited("comments of #9")
				}
			},
			check: apperrors.IsQuotaExhausted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := ct.New(metricsUpstream(t0))
			candidate := candidateOf(t, fake)
			tt.setup(fake)

			_, err := collector.NewEnricher(fake).Enrich(context.Background(), januaryWindow(), candidate)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestEnrich_CancelsSiblingsOnFailure(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	fake := ct.New(metricsUpstream(t0))
	candidate := candidateOf(t, fake)

	fake.GetPullRequestFunc = func(context.Context, int) (*github.PullRequest, error) {
		return nil, ct.ServerError("pull request #9")
	}
	fake.ListCommitsFunc = func(ctx context.Context, _ int) ([]*github.RepositoryCommit, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("sibling was not cancelled")
		}
	}

	start := time.Now()
	_, err := collector.NewEnricher(fake).Enrich(context.Background(), januaryWindow(), candidate)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}
