package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-pr-metrics/internal/api"
	"github.com/kurihiro0119/github-pr-metrics/internal/checkpoint"
	"github.com/kurihiro0119/github-pr-metrics/internal/config"
	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	"github.com/kurihiro0119/github-pr-metrics/pkg/client"
)

var (
	showRemote bool
	prsMonth   string
	prsAuthor  string
	prsLimit   int
)

// reader is the data the show commands need, served either from the data
// directory or from the API server
type reader interface {
	Stats(ctx context.Context) (*domain.Stats, error)
	PRs(ctx context.Context, filter client.PRFilter) ([]domain.PRDetail, int, error)
	Close() error
}

type remoteReader struct {
	client *client.Client
}

func (r *remoteReader) Stats(ctx context.Context) (*domain.Stats, error) {
	return r.client.GetStats(ctx)
}

func (r *remoteReader) PRs(ctx context.Context, filter client.PRFilter) ([]domain.PRDetail, int, error) {
	return r.client.ListPRs(ctx, filter)
}

func (r *remoteReader) Close() error { return nil }

type localReader struct {
	source api.Source
	closer func() error
}

func (r *localReader) Stats(ctx context.Context) (*domain.Stats, error) {
	return r.source.Stats(ctx)
}

func (r *localReader) PRs(ctx context.Context, filter client.PRFilter) ([]domain.PRDetail, int, error) {
	details, err := r.source.Details(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := make([]domain.PRDetail, 0, len(details))
	for _, d := range details {
		if filter.Month != "" && d.Month != filter.Month {
			continue
		}
		if filter.Author != "" && d.Author != filter.Author {
			continue
		}
		filtered = append(filtered, d)
	}
	total := len(filtered)
	if filter.Limit > 0 && filter.Limit < total {
		filtered = filtered[:filter.Limit]
	}
	return filtered, total, nil
}

func (r *localReader) Close() error { return r.closer() }

func getReader(cfg *config.Config) (reader, error) {
	if showRemote {
		return &remoteReader{client: client.NewClient(cfg.APIEndpoint)}, nil
	}
	store, err := checkpoint.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkpoint storage: %w", err)
	}
	return &localReader{source: api.NewFileSource(cfg, store), closer: store.Close}, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := getReader(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	s, err := r.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if outputJSON {
		return printJSON(s)
	}

	fmt.Printf("\nRepository: %s\n", s.RepoInfo.Name)
	fmt.Printf("Period: %s to %s\n\n", s.Period.From, s.Period.Until)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Merged Pull Requests", strconv.Itoa(s.Summary.Merged)})
	table.Append([]string{"Average Size (lines)", formatFloat(s.Summary.AvgSize)})
	table.Append([]string{"Average Merge Time (h)", formatFloat(s.Summary.AvgTtm)})
	table.Append([]string{"Median Merge Time (h)", formatFloat(s.Summary.MedianTtm)})
	table.Append([]string{"P90 Merge Time (h)", formatFloat(s.Summary.P90Ttm)})
	table.Append([]string{"Average Lead Time (h)", formatFloat(s.Summary.AvgLeadTime)})
	table.Append([]string{"Median Lead Time (h)", formatFloat(s.Summary.MedianLeadTime)})
	table.Append([]string{"Average Comments", formatFloat(s.Summary.AvgCommentCount)})
	table.Render()

	if len(s.MonthlyStats) > 0 {
		fmt.Println("\nMonthly")
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Month", "Merged", "Avg Size", "Min", "Max", "Avg TTM (h)", "Avg Lead (h)", "Avg Comments", "Avg Reviewers"})
		for _, m := range s.MonthlyStats {
			table.Append([]string{
				m.Month,
				strconv.Itoa(m.Count),
				formatFloat(m.AvgSize),
				strconv.Itoa(m.MinSize),
				strconv.Itoa(m.MaxSize),
				formatFloat(m.AvgTtm),
				formatFloat(m.AvgLeadTime),
				formatFloat(m.AvgComments),
				formatFloat(m.AvgReviewers),
			})
		}
		table.Render()
	}

	if len(s.Rankings.Mergers) > 0 {
		fmt.Println("\nTop Authors")
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Rank", "Author", "Merged", "Avg TTM (h)"})
		for i, m := range s.Rankings.Mergers {
			if i == 10 {
				break
			}
			table.Append([]string{strconv.Itoa(i + 1), m.Login, strconv.Itoa(m.Merged), formatFloat(m.AvgTime)})
		}
		table.Render()
	}

	if len(s.Rankings.Reviewers) > 0 {
		fmt.Println("\nTop Reviewers")
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Rank", "Reviewer", "Pull Requests Reviewed"})
		for i, rv := range s.Rankings.Reviewers {
			if i == 10 {
				break
			}
			table.Append([]string{strconv.Itoa(i + 1), rv.Login, strconv.Itoa(rv.Count)})
		}
		table.Render()
	}

	if o := s.Outliers; o.Slowest != nil {
		fmt.Println("\nOutliers")
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Kind", "PR", "Author", "Value"})
		table.Append([]string{"Slowest", "#" + strconv.Itoa(o.Slowest.Number), o.Slowest.Author, formatFloat(o.Slowest.MergeTimeHours) + " h"})
		table.Append([]string{"Biggest", "#" + strconv.Itoa(o.Biggest.Number), o.Biggest.Author, strconv.Itoa(o.Biggest.Size) + " lines"})
		table.Append([]string{"Most Comments", "#" + strconv.Itoa(o.MostComments.Number), o.MostComments.Author, strconv.Itoa(o.MostComments.CommentCount)})
		table.Render()
	}

	return nil
}

func runShowPRs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := getReader(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	prs, total, err := r.PRs(cmd.Context(), client.PRFilter{Month: prsMonth, Author: prsAuthor, Limit: prsLimit})
	if err != nil {
		return fmt.Errorf("failed to get pull requests: %w", err)
	}

	if outputJSON {
		return printJSON(prs)
	}

	fmt.Printf("\nPull Requests (%d of %d)\n\n", len(prs), total)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"PR", "Author", "Month", "Size", "Commits", "TTM (h)", "Lead (h)", "Reviewers", "Comments"})
	for _, pr := range prs {
		table.Append([]string{
			"#" + strconv.Itoa(pr.Number),
			pr.Author,
			pr.Month,
			strconv.Itoa(pr.Size),
			strconv.Itoa(pr.CommitCount),
			formatFloat(pr.MergeTimeHours),
			formatFloat(pr.LeadTimeHours),
			strconv.Itoa(pr.ReviewCount),
			strconv.Itoa(pr.CommentCount),
		})
	}
	table.Render()
	return nil
}

func printStatus(status domain.CrawlStatus) error {
	if outputJSON {
		return printJSON(status)
	}
	if !status.Active {
		fmt.Println("No crawl in progress")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Run ID", status.RunID})
	table.Append([]string{"Repository", status.Repository})
	if status.Period != nil {
		table.Append([]string{"Period", status.Period.From + " to " + status.Period.Until})
	}
	table.Append([]string{"Discovered", strconv.FormatBool(status.Discovered)})
	table.Append([]string{"Candidates", strconv.Itoa(status.Candidates)})
	table.Append([]string{"Processed", strconv.Itoa(status.Processed)})
	table.Append([]string{"Skipped", strconv.Itoa(status.Skipped)})
	table.Append([]string{"Remaining", strconv.Itoa(status.Remaining)})
	if status.UpdatedAt != nil {
		table.Append([]string{"Last Checkpoint", status.UpdatedAt.Local().Format("2006-01-02 15:04:05")})
	}
	table.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
