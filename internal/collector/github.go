package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v55/github"
)

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	client *github.Client
	pacer  *Pacer
}

// NewGitHubCollector creates a new GitHub collector. baseURL selects a
// GitHub Enterprise server; empty means api.github.com.
func NewGitHubCollector(httpClient *http.Client, baseURL string, interval time.Duration) (Collector, error) {
	client := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		client, err = github.NewEnterpriseClient(baseURL, baseURL, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create enterprise client: %w", err)
		}
	}
	return newGitHubCollector(client, interval), nil
}

func newGitHubCollector(client *github.Client, interval time.Duration) *githubCollector {
	return &githubCollector{
		client: client,
		pacer:  NewPacer(interval),
	}
}

// GetRateLimit retrieves the core rate limit. The rate limit endpoint does
// not count against the budget.
func (c *githubCollector) GetRateLimit(ctx context.Context) (Quota, error) {
	limits, _, err := c.client.RateLimits(ctx)
	if err != nil {
		return Quota{}, classifyError("rate limit", err)
	}
	if limits == nil || limits.Core == nil {
		return Quota{}, classifyError("rate limit", fmt.Errorf("response has no core rate"))
	}
	return newQuota(limits.Core), nil
}

// ListClosedPullRequests retrieves one page of closed pull requests sorted by update time
func (c *githubCollector) ListClosedPullRequests(ctx context.Context, owner, repo string, page, perPage int) ([]*github.PullRequest, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
	c.pacer.Observe(resp)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("closed pull requests of %s/%s", owner, repo), err)
	}
	return prs, nil
}

// GetPullRequest retrieves the full detail of a pull request
func (c *githubCollector) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	pr, resp, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	c.pacer.Observe(resp)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("pull request #%d", number), err)
	}
	return pr, nil
}

// ListReviews retrieves every review of a pull request
func (c *githubCollector) ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	return collectPages(ctx, c.pacer, fmt.Sprintf("reviews of #%d", number),
		func(opts github.ListOptions) ([]*github.PullRequestReview, *github.Response, error) {
			return c.client.PullRequests.ListReviews(ctx, owner, repo, number, &opts)
		})
}

// ListCommits retrieves every commit of a pull request
func (c *githubCollector) ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error) {
	return collectPages(ctx, c.pacer, fmt.Sprintf("commits of #%d", number),
		func(opts github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
			return c.client.PullRequests.ListCommits(ctx, owner, repo, number, &opts)
		})
}

// ListIssueComments retrieves every conversation comment of a pull request
func (c *githubCollector) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	return collectPages(ctx, c.pacer, fmt.Sprintf("comments of #%d", number),
		func(opts github.ListOptions) ([]*github.IssueComment, *github.Response, error) {
			return c.client.Issues.ListComments(ctx, owner, repo, number, &github.IssueListCommentsOptions{ListOptions: opts})
		})
}

// GetRepository retrieves repository metadata
func (c *githubCollector) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	r, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	c.pacer.Observe(resp)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("repository %s/%s", owner, repo), err)
	}
	return r, nil
}

// collectPages follows NextPage links until the listing is exhausted
func collectPages[T any](ctx context.Context, pacer *Pacer, what string, fetch func(opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	all := []T{}
	opts := github.ListOptions{PerPage: 100}

	for {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		items, resp, err := fetch(opts)
		pacer.Observe(resp)
		if err != nil {
			return nil, classifyError(what, err)
		}
		all = append(all, items...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}
