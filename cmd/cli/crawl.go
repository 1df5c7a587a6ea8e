package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-pr-metrics/internal/aggregator"
	"github.com/kurihiro0119/github-pr-metrics/internal/checkpoint"
	"github.com/kurihiro0119/github-pr-metrics/internal/collector"
	"github.com/kurihiro0119/github-pr-metrics/internal/config"
	"github.com/kurihiro0119/github-pr-metrics/internal/crawler"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

var (
	crawlRepo    string
	crawlFrom    string
	crawlUntil   string
	crawlToken   string
	crawlProcess bool
)

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token := cfg.ResolveToken(crawlToken)
	if err := cfg.ValidateCrawl(token); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	runCfg, err := config.ParseRunConfig(crawlRepo, crawlFrom, crawlUntil, token)
	if err != nil {
		return err
	}

	lock, err := crawler.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := checkpoint.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize checkpoint storage: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := collector.NewHTTPClient(ctx, cfg, token)
	if err != nil {
		return err
	}
	coll, err := collector.NewGitHubCollector(httpClient, cfg.GitHubAPIURL, cfg.RequestInterval)
	if err != nil {
		return err
	}

	fmt.Printf("Crawling %s, merged %s to %s\n", runCfg.FullName(), crawlFrom, crawlUntil)

	ctrl := crawler.NewController(coll, store, crawler.Options{
		QuotaThreshold: cfg.QuotaThreshold,
		PageSize:       cfg.PageSize,
		MaxPages:       cfg.MaxPages,
		ReportPath:     cfg.ReportPath(),
		OnProgress:     printProgress,
	})

	out, err := ctrl.Run(ctx, runCfg)
	fmt.Println()
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return fmt.Errorf("GitHub rejected the credential, check GITHUB_TOKEN or the app settings: %w", err)
		}
		return err
	}

	if out.State == crawler.StateSuspended {
		printSuspended(out)
		return nil
	}

	fmt.Printf("Crawl complete: %d pull requests", out.Processed)
	if out.Skipped > 0 {
		fmt.Printf(" (%d skipped as no longer accessible)", out.Skipped)
	}
	fmt.Printf("\nReport written to %s\n", out.ReportPath)

	if crawlProcess {
		return processReport(cfg)
	}
	return nil
}

func printProgress(e crawler.Event) {
	switch e.State {
	case crawler.StateDiscovering:
		if e.Page > 0 {
			fmt.Printf("\rDiscovering: page %d, %d candidates", e.Page, e.Found)
		}
	case crawler.StateEnriching:
		if e.Number > 0 {
			fmt.Printf("\rEnriching: %d/%d (skipped %d), last #%d", e.Processed+e.Skipped, e.Total, e.Skipped, e.Number)
		}
	}
}

func printSuspended(out *crawler.Outcome) {
	fmt.Printf("Crawl suspended: %s\n", out.Reason)
	fmt.Printf("Processed %d, skipped %d, remaining %d\n", out.Processed, out.Skipped, out.Remaining)
	if out.Quota != nil {
		fmt.Printf("API quota: %d of %d left, resets at %s\n",
			out.Quota.Remaining, out.Quota.Limit, out.Quota.ResetAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Run the same command again to resume.")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return processReport(cfg)
}

func processReport(cfg *config.Config) error {
	s, err := aggregator.NewAggregator().ProcessFile(cfg.ReportPath(), cfg.StatsPath(), cfg.DetailsPath())
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no report at %s, run crawl first", cfg.ReportPath())
	}
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d pull requests into %s and %s\n", s.Summary.Merged, cfg.StatsPath(), cfg.DetailsPath())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize checkpoint storage: %w", err)
	}
	defer store.Close()

	status, err := checkpoint.Status(cmd.Context(), store)
	if err != nil {
		return err
	}
	return printStatus(status)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lock, err := crawler.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := checkpoint.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize checkpoint storage: %w", err)
	}
	defer store.Close()

	if err := store.Discard(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Checkpoint discarded")
	return nil
}
