package aggregator

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/jsonfile"
)

// Aggregator defines the interface for aggregating a crawl report
type Aggregator interface {
	// Aggregate computes the display statistics and per pull request details
	Aggregate(report *domain.Report) (*domain.Stats, []domain.PRDetail)

	// ProcessFile reads a report and writes the statistics and detail files
	ProcessFile(reportPath, statsPath, detailsPath string) (*domain.Stats, error)
}

// aggregator implements the Aggregator interface
type aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() Aggregator {
	return &aggregator{}
}

// Aggregate computes the display statistics of report. Input order is kept
// for details and scatter data; months are sorted ascending.
func (a *aggregator) Aggregate(report *domain.Report) (*domain.Stats, []domain.PRDetail) {
	details := make([]domain.PRDetail, 0, len(report.PRs))
	for _, pr := range report.PRs {
		details = append(details, domain.PRDetail{
			EnrichedPR:  pr,
			ReviewCount: pr.ReviewerLogins.Len(),
		})
	}

	return &domain.Stats{
		RepoInfo:     report.RepoInfo,
		Period:       report.Period,
		GeneratedAt:  report.GeneratedAt,
		Summary:      summarize(details),
		MonthlyStats: monthlyStats(details),
		Rankings: domain.Rankings{
			Mergers:   rankMergers(details),
			Reviewers: rankReviewers(details),
		},
		Outliers:    findOutliers(details),
		ScatterData: scatter(details),
	}, details
}

// ProcessFile reads the report at reportPath and writes both outputs
func (a *aggregator) ProcessFile(reportPath, statsPath, detailsPath string) (*domain.Stats, error) {
	var report domain.Report
	if err := jsonfile.Read(reportPath, &report); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	s, details := a.Aggregate(&report)
	if err := WriteOutputs(statsPath, detailsPath, s, details); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteOutputs writes the statistics and detail files atomically
func WriteOutputs(statsPath, detailsPath string, s *domain.Stats, details []domain.PRDetail) error {
	if err := jsonfile.WriteAtomic(statsPath, s); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	if err := jsonfile.WriteAtomic(detailsPath, details); err != nil {
		return fmt.Errorf("failed to write details: %w", err)
	}
	return nil
}

func summarize(details []domain.PRDetail) domain.Summary {
	sizes := make([]float64, 0, len(details))
	ttm := make([]float64, 0, len(details))
	lead := make([]float64, 0, len(details))
	comments := make([]float64, 0, len(details))
	for _, d := range details {
		sizes = append(sizes, float64(d.Size))
		ttm = append(ttm, d.MergeTimeHours)
		lead = append(lead, d.LeadTimeHours)
		comments = append(comments, float64(d.CommentCount))
	}

	return domain.Summary{
		Merged:          len(details),
		AvgSize:         mean(sizes),
		AvgTtm:          mean(ttm),
		AvgLeadTime:     mean(lead),
		MedianTtm:       median(ttm),
		P90Ttm:          percentile(ttm, 90),
		MedianLeadTime:  median(lead),
		AvgCommentCount: mean(comments),
	}
}

func monthlyStats(details []domain.PRDetail) []domain.MonthlyStats {
	byMonth := make(map[string][]domain.PRDetail)
	for _, d := range details {
		byMonth[d.Month] = append(byMonth[d.Month], d)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	result := make([]domain.MonthlyStats, 0, len(months))
	for _, m := range months {
		sub := byMonth[m]
		var sizes, ttm, lead, comments, reviewers []float64
		minSize, maxSize := sub[0].Size, sub[0].Size
		for _, d := range sub {
			sizes = append(sizes, float64(d.Size))
			ttm = append(ttm, d.MergeTimeHours)
			lead = append(lead, d.LeadTimeHours)
			comments = append(comments, float64(d.CommentCount))
			reviewers = append(reviewers, float64(d.ReviewCount))
			if d.Size < minSize {
				minSize = d.Size
			}
			if d.Size > maxSize {
				maxSize = d.Size
			}
		}

		result = append(result, domain.MonthlyStats{
			Month:        m,
			Count:        len(sub),
			AvgSize:      mean(sizes),
			MinSize:      minSize,
			MaxSize:      maxSize,
			AvgTtm:       mean(ttm),
			AvgLeadTime:  mean(lead),
			AvgComments:  mean(comments),
			AvgReviewers: mean(reviewers),
		})
	}
	return result
}

func rankMergers(details []domain.PRDetail) []domain.MergerRank {
	times := make(map[string][]float64)
	for _, d := range details {
		times[d.Author] = append(times[d.Author], d.MergeTimeHours)
	}

	ranks := make([]domain.MergerRank, 0, len(times))
	for login, t := range times {
		ranks = append(ranks, domain.MergerRank{Login: login, Merged: len(t), AvgTime: mean(t)})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Merged != ranks[j].Merged {
			return ranks[i].Merged > ranks[j].Merged
		}
		return ranks[i].Login < ranks[j].Login
	})
	return ranks
}

// rankReviewers counts the pull requests each login reviewed
func rankReviewers(details []domain.PRDetail) []domain.ReviewerRank {
	counts := make(map[string]int)
	for _, d := range details {
		for _, login := range d.ReviewerLogins.Logins() {
			counts[login]++
		}
	}

	ranks := make([]domain.ReviewerRank, 0, len(counts))
	for login, n := range counts {
		ranks = append(ranks, domain.ReviewerRank{Login: login, Count: n})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].Login < ranks[j].Login
	})
	return ranks
}

// findOutliers keeps the first pull request holding each maximum
func findOutliers(details []domain.PRDetail) domain.Outliers {
	var out domain.Outliers
	for i := range details {
		d := &details[i]
		if out.Slowest == nil || d.MergeTimeHours > out.Slowest.MergeTimeHours {
			out.Slowest = d
		}
		if out.Biggest == nil || d.Size > out.Biggest.Size {
			out.Biggest = d
		}
		if out.MostComments == nil || d.CommentCount > out.MostComments.CommentCount {
			out.MostComments = d
		}
	}
	return out
}

func scatter(details []domain.PRDetail) []domain.ScatterPoint {
	points := make([]domain.ScatterPoint, 0, len(details))
	for _, d := range details {
		points = append(points, domain.ScatterPoint{X: d.Size, Y: d.MergeTimeHours})
	}
	return points
}

// mean, median and percentile return 0 for empty input

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Median(xs)
	if err != nil {
		return 0
	}
	return m
}

func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	v, err := stats.PercentileNearestRank(xs, p)
	if err != nil {
		return 0
	}
	return v
}
