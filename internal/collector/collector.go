package collector

import (
	"context"

	"github.com/google/go-github/v55/github"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
)

// Collector is the GitHub REST surface consumed by the crawler.
// Every method is a fallible network call; errors are classified into the
// taxonomy of internal/errors (NOT_FOUND, TRANSIENT_API, QUOTA_EXHAUSTED,
// UNAUTHORIZED). Context cancellation is returned unchanged.
type Collector interface {
	// GetRateLimit returns the current core API budget
	GetRateLimit(ctx context.Context) (Quota, error)

	// ListClosedPullRequests returns one page of closed pull requests, most recently updated first
	ListClosedPullRequests(ctx context.Context, owner, repo string, page, perPage int) ([]*github.PullRequest, error)

	// GetPullRequest retrieves the full detail of a pull request
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)

	// ListReviews retrieves every review of a pull request
	ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error)

	// ListCommits retrieves every commit of a pull request, oldest first
	ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error)

	// ListIssueComments retrieves every conversation comment of a pull request
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)

	// GetRepository retrieves repository metadata
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
}

// ProgressCallback is a callback function for reporting discovery progress
type ProgressCallback func(page, found int)

// RepoInfoOf converts repository metadata for the report
func RepoInfoOf(r *github.Repository) domain.RepoInfo {
	return domain.RepoInfo{
		Name:      r.GetName(),
		FullName:  r.GetFullName(),
		IsPrivate: r.GetPrivate(),
		CreatedAt: r.GetCreatedAt().Time,
	}
}
