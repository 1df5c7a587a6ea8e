package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-pr-metrics/internal/config"
)

var (
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "pr-metrics",
	Short: "GitHub pull request metrics tool",
	Long: `A CLI tool for harvesting merged pull requests of a GitHub repository
and turning them into merge time, lead time, size and review statistics.

The crawl is resumable: when the API quota runs low, the network fails or
the command is interrupted, progress is checkpointed in the data directory
and the next crawl with the same repository and start date continues from
there.`,
	SilenceUsage: true,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect merged pull requests from GitHub",
	Long:  `Discover the pull requests merged in a date range and enrich each with reviews, commits and comments.`,
	Args:  cobra.NoArgs,
	RunE:  runCrawl,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Aggregate the crawl report",
	Long:  `Compute monthly statistics, rankings and outliers from data.json into ui-stats.json and ui-details.json.`,
	Args:  cobra.NoArgs,
	RunE:  runProcess,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show aggregated metrics",
	Long:  `Display the processed statistics, read from the data directory or from the API server.`,
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var showPRsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List processed pull requests",
	Args:  cobra.NoArgs,
	RunE:  runShowPRs,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of a suspended crawl",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the crawl checkpoint",
	Long:  `Remove the stored checkpoint so that the next crawl starts from scratch.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	crawlCmd.Flags().StringVar(&crawlRepo, "repo", "", "repository as owner/name")
	crawlCmd.Flags().StringVar(&crawlFrom, "from", "", "first merge date (YYYY-MM-DD)")
	crawlCmd.Flags().StringVar(&crawlUntil, "until", "", "last merge date, inclusive (YYYY-MM-DD)")
	crawlCmd.Flags().StringVar(&crawlToken, "token", "", "GitHub token (default: GITHUB_TOKEN, then git config github.token)")
	crawlCmd.Flags().BoolVar(&crawlProcess, "process", false, "aggregate the report once the crawl completes")
	_ = crawlCmd.MarkFlagRequired("repo")
	_ = crawlCmd.MarkFlagRequired("from")
	_ = crawlCmd.MarkFlagRequired("until")

	showCmd.PersistentFlags().BoolVar(&showRemote, "remote", false, "read from the API server at API_ENDPOINT")
	showPRsCmd.Flags().StringVar(&prsMonth, "month", "", "only pull requests merged in this month (YYYY-MM)")
	showPRsCmd.Flags().StringVar(&prsAuthor, "author", "", "only pull requests by this author")
	showPRsCmd.Flags().IntVar(&prsLimit, "limit", 20, "maximum number of pull requests")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showPRsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration and sets up logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetupLogging()
	return cfg, nil
}
