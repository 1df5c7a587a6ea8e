// Package collectortest provides an in-memory GitHub upstream for tests.
package collectortest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"

	"github.com/kurihiro0119/github-pr-metrics/internal/collector"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

const (
	OpRateLimit     = "GetRateLimit"
	OpListClosed    = "ListClosedPullRequests"
	OpGetPR         = "GetPullRequest"
	OpListReviews   = "ListReviews"
	OpListCommits   = "ListCommits"
	OpListComments  = "ListIssueComments"
	OpGetRepository = "GetRepository"
)

// Fake implements collector.Collector with overridable function fields.
// Unset functions fall back to the Upstream snapshot.
type Fake struct {
	Upstream *Upstream

	RateLimitFunc         func(ctx context.Context) (collector.Quota, error)
	ListClosedFunc        func(ctx context.Context, page, perPage int) ([]*github.PullRequest, error)
	GetPullRequestFunc    func(ctx context.Context, number int) (*github.PullRequest, error)
	ListReviewsFunc       func(ctx context.Context, number int) ([]*github.PullRequestReview, error)
	ListCommitsFunc       func(ctx context.Context, number int) ([]*github.RepositoryCommit, error)
	ListIssueCommentsFunc func(ctx context.Context, number int) ([]*github.IssueComment, error)
	GetRepositoryFunc     func(ctx context.Context) (*github.Repository, error)

	mu    sync.Mutex
	calls map[string]int
	perPR map[string]map[int]int
}

// UpstreamPR is one pull request of the fake repository
type UpstreamPR struct {
	PR       *github.PullRequest
	Reviews  []*github.PullRequestReview
	Commits  []*github.RepositoryCommit
	Comments []*github.IssueComment
}

// Upstream is a fixed snapshot of a repository. PRs are listed in slice
// order, which tests arrange as most recently updated first.
type Upstream struct {
	Repo *github.Repository
	PRs  []UpstreamPR
}

// New creates a fake serving upstream
func New(upstream *Upstream) *Fake {
	if upstream == nil {
		upstream = &Upstream{}
	}
	return &Fake{
		Upstream: upstream,
		calls:    make(map[string]int),
		perPR:    make(map[string]map[int]int),
	}
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// CallsFor returns how many times op was invoked for pull request number
func (f *Fake) CallsFor(op string, number int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perPR[op][number]
}

func (f *Fake) record(op string, number int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if number > 0 {
		if f.perPR[op] == nil {
			f.perPR[op] = make(map[int]int)
		}
		f.perPR[op][number]++
	}
}

func (f *Fake) find(number int) (*UpstreamPR, error) {
	for i := range f.Upstream.PRs {
		if f.Upstream.PRs[i].PR.GetNumber() == number {
			return &f.Upstream.PRs[i], nil
		}
	}
	return nil, NotFound(fmt.Sprintf("pull request #%d", number))
}

func (f *Fake) GetRateLimit(ctx context.Context) (collector.Quota, error) {
	f.record(OpRateLimit, 0)
	if f.RateLimitFunc != nil {
		return f.RateLimitFunc(ctx)
	}
	return collector.Quota{Limit: 5000, Remaining: 5000, ResetAt: time.Now().Add(time.Hour)}, nil
}

func (f *Fake) ListClosedPullRequests(ctx context.Context, owner, repo string, page, perPage int) ([]*github.PullRequest, error) {
	f.record(OpListClosed, 0)
	if f.ListClosedFunc != nil {
		return f.ListClosedFunc(ctx, page, perPage)
	}
	start := (page - 1) * perPage
	if start >= len(f.Upstream.PRs) {
		return []*github.PullRequest{}, nil
	}
	end := start + perPage
	if end > len(f.Upstream.PRs) {
		end = len(f.Upstream.PRs)
	}
	prs := make([]*github.PullRequest, 0, end-start)
	for _, u := range f.Upstream.PRs[start:end] {
		prs = append(prs, u.PR)
	}
	return prs, nil
}

func (f *Fake) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	f.record(OpGetPR, number)
	if f.GetPullRequestFunc != nil {
		return f.GetPullRequestFunc(ctx, number)
	}
	u, err := f.find(number)
	if err != nil {
		return nil, err
	}
	return u.PR, nil
}

func (f *Fake) ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	f.record(OpListReviews, number)
	if f.ListReviewsFunc != nil {
		return f.ListReviewsFunc(ctx, number)
	}
	u, err := f.find(number)
	if err != nil {
		return nil, err
	}
	return u.Reviews, nil
}

func (f *Fake) ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error) {
	f.record(OpListCommits, number)
	if f.ListCommitsFunc != nil {
		return f.ListCommitsFunc(ctx, number)
	}
	u, err := f.find(number)
	if err != nil {
		return nil, err
	}
	return u.Commits, nil
}

func (f *Fake) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	f.record(OpListComments, number)
	if f.ListIssueCommentsFunc != nil {
		return f.ListIssueCommentsFunc(ctx, number)
	}
	u, err := f.find(number)
	if err != nil {
		return nil, err
	}
	return u.Comments, nil
}

func (f *Fake) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	f.record(OpGetRepository, 0)
	if f.GetRepositoryFunc != nil {
		return f.GetRepositoryFunc(ctx)
	}
	if f.Upstream.Repo != nil {
		return f.Upstream.Repo, nil
	}
	return &github.Repository{Name: github.String(repo), FullName: github.String(owner + "/" + repo)}, nil
}

// NotFound is the classified error of a missing resource
func NotFound(what string) error {
	return apperrors.NewNotFoundError(what, statusError(what, http.StatusNotFound))
}

// Forbidden is the classified error of a 403 without rate limit headers
func Forbidden(what string) error {
	return apperrors.NewInaccessibleError(what, statusError(what, http.StatusForbidden))
}

// Rejected is the classified error of a 422
func Rejected(what string) error {
	return apperrors.NewRejectedError("GitHub rejected the request for "+what, statusError(what, http.StatusUnprocessableEntity))
}

// ServerError is the classified error of a 5xx response
func ServerError(what string) error {
	return apperrors.NewTransientAPIError("failed to fetch "+what, statusError(what, http.StatusBadGateway))
}

// RateLimited is the classified error of a rejected over-budget call
func RateLimited(what string) error {
	return apperrors.NewQuotaExhaustedError("rate limited while fetching "+what, &github.RateLimitError{Message: what})
}

func statusError(what string, status int) error {
	return &github.ErrorResponse{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  what,
	}
}
