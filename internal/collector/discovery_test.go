package collector_test

import (
	"context"
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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func januaryWindow() domain.RunConfig {
	return domain.RunConfig{
		Owner: "octo",
		Name:  "widgets",
		From:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassify(t *testing.T) {
	cfg := januaryWindow()

	tests := []struct {
		name          string
		pr            *github.PullRequest
		wantInclude   bool
		wantExhausted bool
	}{
		{
			name:        "merged in window",
			pr:          ct.PR(1, 1, day(2024, 1, 2), day(2024, 1, 10), ct.Ptr(day(2024, 1, 10))),
			wantInclude: true,
		},
		{
			name:        "merged on last day of window",
			pr:          ct.PR(1, 1, day(2024, 1, 2), day(2024, 1, 31), ct.Ptr(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC))),
			wantInclude: true,
		},
		{
			name:          "merged and updated before window stops pagination",
			pr:            ct.PR(1, 1, day(2023, 12, 1), day(2023, 12, 20), ct.Ptr(day(2023, 12, 20))),
			wantExhausted: true,
		},
		{
			name: "merged before window but updated inside keeps paginating",
			pr:   ct.PR(1, 1, day(2023, 12, 1), day(2024, 1, 5), ct.Ptr(day(2023, 12, 20))),
		},
		{
			name: "merged after window",
			pr:   ct.PR(1, 1, day(2024, 1, 20), day(2024, 2, 3), ct.Ptr(day(2024, 2, 2))),
		},
		{
			name: "closed without merge",
			pr:   ct.PR(1, 1, day(2023, 1, 1), day(2023, 1, 2), nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, exhausted := collector.Classify(tt.pr, cfg)
			assert.Equal(t, tt.wantInclude, include)
			assert.Equal(t, tt.wantExhausted, exhausted)
		})
	}
}

func boundaryUpstream() *ct.Upstream {
	return &ct.Upstream{PRs: []ct.UpstreamPR{
		{PR: ct.PR(1, 101, day(2024, 1, 8), day(2024, 1, 10), ct.Ptr(day(2024, 1, 10)))},
		{PR: ct.PR(2, 102, day(2023, 12, 1), day(2024, 1, 5), ct.Ptr(day(2023, 12, 20)))},
		{PR: ct.PR(3, 103, day(2024, 1, 1), day(2024, 1, 3), ct.Ptr(day(2024, 1, 3)))},
		{PR: ct.PR(4, 104, day(2023, 11, 1), day(2024, 1, 2), nil)},
		{PR: ct.PR(5, 105, day(2023, 12, 1), day(2023, 12, 20), ct.Ptr(day(2023, 12, 20)))},
		{PR: ct.PR(6, 106, day(2023, 12, 1), day(2023, 12, 19), ct.Ptr(day(2023, 12, 19)))},
		{PR: ct.PR(7, 107, day(2023, 11, 1), day(2023, 12, 1), ct.Ptr(day(2023, 12, 1)))},
	}}
}

func TestDiscover_StopsOncePastWindow(t *testing.T) {
	fake := ct.New(boundaryUpstream())
	var pages []int
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{
		PageSize: 2,
		OnPage:   func(page, found int) { pages = append(pages, page) },
	})

	found, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, int64(1), found[0].ID)
	assert.Equal(t, int64(3), found[1].ID)
	assert.Equal(t, 3, fake.Calls(ct.OpListClosed), "page 4 must not be requested")
	assert.Equal(t, []int{1, 2, 3}, pages)
	assert.Equal(t, "author", found[0].Author)
	require.NotNil(t, found[0].MergedAt)
}

func TestDiscover_Idempotent(t *testing.T) {
	fake := ct.New(boundaryUpstream())
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{PageSize: 2})

	first, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDiscover_EmptyRepository(t *testing.T) {
	fake := ct.New(nil)
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{})

	found, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.Equal(t, 1, fake.Calls(ct.OpListClosed))
}

func TestDiscover_PageCeilingIsSoft(t *testing.T) {
	fake := ct.New(nil)
	fake.ListClosedFunc = func(_ context.Context, page, _ int) ([]*github.PullRequest, error) {
		return []*github.PullRequest{
			ct.PR(int64(page), page, day(2024, 1, 9), day(2024, 1, 10), ct.Ptr(day(2024, 1, 10))),
		}, nil
	}
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{PageSize: 1, MaxPages: 3})

	found, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)
	assert.Len(t, found, 3)
	assert.Equal(t, 3, fake.Calls(ct.OpListClosed))
}

func TestDiscover_DropsRepeatedItems(t *testing.T) {
	fake := ct.New(nil)
	fake.ListClosedFunc = func(_ context.Context, page, _ int) ([]*github.PullRequest, error) {
		if page > 2 {
			return nil, nil
		}
		return []*github.PullRequest{
			ct.PR(42, 42, day(2024, 1, 9), day(2024, 1, 10), ct.Ptr(day(2024, 1, 10))),
		}, nil
	}
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{PageSize: 1})

	found, err := d.Discover(context.Background(), januaryWindow())
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDiscover_PropagatesClassifiedError(t *testing.T) {
	fake := ct.New(nil)
	fake.ListClosedFunc = func(context.Context, int, int) ([]*github.PullRequest, error) {
		return nil, ct.ServerError("closed pull requests")
	}
	d := collector.NewDiscoverer(fake, collector.DiscoveryOptions{})

	_, err := d.Discover(context.Background(), januaryWindow())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}
