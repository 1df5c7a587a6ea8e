package collector

import (
	"context"
	"fmt"

	"github.com/google/go-github/v55/github"
	log "github.com/sirupsen/logrus"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 100
)

// DiscoveryOptions bounds range discovery
type DiscoveryOptions struct {
	PageSize int
	// MaxPages is a safety bound for pathological repositories, not a
	// correctness guarantee: in-window pull requests past it are missed.
	MaxPages int
	OnPage   ProgressCallback
}

// Discoverer finds the merged pull requests of a window
type Discoverer struct {
	collector Collector
	opts      DiscoveryOptions
}

// NewDiscoverer creates a new range discoverer
func NewDiscoverer(c Collector, opts DiscoveryOptions) *Discoverer {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Discoverer{collector: c, opts: opts}
}

// Discover pages through closed pull requests, most recently updated first,
// and returns those merged within the window in listing order.
//
// The listing is ordered by update time, not merge time, so the cutoff is
// an approximation: pagination stops once a pull request both merged and
// was last updated before the window, since every later page was updated
// even earlier.
func (d *Discoverer) Discover(ctx context.Context, cfg domain.RunConfig) ([]domain.CandidatePR, error) {
	found := []domain.CandidatePR{}
	seen := make(map[int64]struct{})

	for page := 1; ; page++ {
		if page > d.opts.MaxPages {
			log.WithFields(log.Fields{
				"repo":      cfg.FullName(),
				"max_pages": d.opts.MaxPages,
				"found":     len(found),
			}).Warn("discovery page ceiling reached, older pull requests may be missing")
			break
		}

		prs, err := d.collector.ListClosedPullRequests(ctx, cfg.Owner, cfg.Name, page, d.opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list closed pull requests (page %d): %w", page, err)
		}
		if len(prs) == 0 {
			break
		}

		stop := false
		for _, pr := range prs {
			include, exhausted := Classify(pr, cfg)
			if exhausted {
				stop = true
			}
			if !include {
				continue
			}
			// page drift can repeat an item across pages
			if _, dup := seen[pr.GetID()]; dup {
				continue
			}
			seen[pr.GetID()] = struct{}{}
			found = append(found, toCandidate(pr))
		}

		log.WithFields(log.Fields{"page": page, "found": len(found)}).Debug("discovery page fetched")
		if d.opts.OnPage != nil {
			d.opts.OnPage(page, len(found))
		}
		if stop {
			break
		}
	}

	return found, nil
}

// Classify decides whether pr was merged within the window, and whether it
// proves that no later page can hold an in-window pull request.
func Classify(pr *github.PullRequest, cfg domain.RunConfig) (include, exhausted bool) {
	if pr == nil || pr.MergedAt == nil {
		return false, false
	}

	mergedAt := pr.GetMergedAt().Time
	if cfg.InWindow(mergedAt) {
		return true, false
	}
	if mergedAt.Before(cfg.WindowStart()) && pr.GetUpdatedAt().Time.Before(cfg.WindowStart()) {
		return false, true
	}
	return false, false
}

func toCandidate(pr *github.PullRequest) domain.CandidatePR {
	c := domain.CandidatePR{
		ID:        pr.GetID(),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		URL:       pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		c.MergedAt = &t
	}
	return c
}
