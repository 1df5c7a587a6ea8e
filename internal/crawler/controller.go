package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kurihiro0119/github-pr-metrics/internal/checkpoint"
	"github.com/kurihiro0119/github-pr-metrics/internal/collector"
	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage"
	"github.com/kurihiro0119/github-pr-metrics/internal/storage/jsonfile"
)

// State is a step of the run state machine
type State string

const (
	StateInit        State = "INIT"
	StateDiscovering State = "DISCOVERING"
	StateEnriching   State = "ENRICHING"
	StateAssembling  State = "ASSEMBLING"
	StateDone        State = "DONE"
	StateSuspended   State = "SUSPENDED"
)

// DefaultQuotaThreshold is the remaining budget below which a run suspends
const DefaultQuotaThreshold = 20

// Options configures a Controller
type Options struct {
	QuotaThreshold int
	PageSize       int
	MaxPages       int

	// ReportPath receives the final report
	ReportPath string

	OnProgress func(Event)
	Now        func() time.Time
}

// Event reports progress to the caller
type Event struct {
	State     State
	Page      int // discovery only
	Found     int // discovery only
	Number    int // last enriched or skipped pull request
	Processed int
	Skipped   int
	Total     int
}

// Outcome is the result of one invocation of Run. A suspended run is not an
// error; its checkpoint can be resumed by running again.
type Outcome struct {
	State      State
	RunID      string
	Resumed    bool
	Reason     string
	Cause      error
	Report     *domain.Report
	ReportPath string
	Processed  int
	Skipped    int
	Remaining  int
	Quota      *collector.Quota
}

// Controller drives one crawl from checkpoint to report. Candidates are
// enriched strictly one after another.
type Controller struct {
	collector  collector.Collector
	store      storage.Storage
	discoverer *collector.Discoverer
	enricher   *collector.Enricher
	opts       Options
}

// NewController creates a new run controller
func NewController(c collector.Collector, store storage.Storage, opts Options) *Controller {
	if opts.QuotaThreshold <= 0 {
		opts.QuotaThreshold = DefaultQuotaThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnProgress == nil {
		opts.OnProgress = func(Event) {}
	}

	ctrl := &Controller{
		collector: c,
		store:     store,
		enricher:  collector.NewEnricher(c),
		opts:      opts,
	}
	ctrl.discoverer = collector.NewDiscoverer(c, collector.DiscoveryOptions{
		PageSize: opts.PageSize,
		MaxPages: opts.MaxPages,
		OnPage: func(page, found int) {
			ctrl.opts.OnProgress(Event{State: StateDiscovering, Page: page, Found: found})
		},
	})
	return ctrl
}

// run carries the mutable bookkeeping of one Run call
type run struct {
	state     *domain.RunState
	outcome   *Outcome
	persisted bool
	logger    *log.Entry
}

// Run resumes or starts the crawl identified by cfg and drives it until it
// is done or suspended. Errors are returned only for failures an operator
// must fix first: rejected credentials and checkpoint persistence.
func (c *Controller) Run(ctx context.Context, cfg domain.RunConfig) (*Outcome, error) {
	state, resumed, err := checkpoint.Resume(ctx, c.store, cfg, c.now())
	if err != nil {
		return nil, err
	}

	r := &run{
		state:     state,
		persisted: resumed,
		outcome:   &Outcome{State: StateInit, RunID: state.RunID, Resumed: resumed},
		logger: log.WithFields(log.Fields{
			"runId":      state.RunID,
			"repository": state.Config.FullName(),
		}),
	}

	if !state.Discovered() {
		if out, err := c.gate(ctx, r); out != nil || err != nil {
			return out, err
		}

		c.transition(r, StateDiscovering)
		candidates, err := c.discoverer.Discover(ctx, state.Config)
		if err != nil {
			return c.fail(ctx, r, fmt.Errorf("failed to discover pull requests: %w", err))
		}
		state.SetCandidates(candidates, c.now())
		if err := c.save(ctx, r); err != nil {
			return nil, err
		}
		r.logger.WithField("candidates", len(candidates)).Info("Discovery complete")
	}

	c.transition(r, StateEnriching)
	for _, candidate := range state.Pending() {
		if ctx.Err() != nil {
			return c.suspend(ctx, r, "cancelled", ctx.Err())
		}
		if out, err := c.gate(ctx, r); out != nil || err != nil {
			return out, err
		}

		pr, err := c.enricher.Enrich(ctx, state.Config, candidate)
		switch {
		case err == nil:
			if err := state.Commit(pr, c.now()); err != nil {
				return nil, apperrors.NewInternalError("failed to record pull request", err)
			}
		case apperrors.IsNotFound(err):
			r.logger.WithError(err).WithField("number", candidate.Number).Warn("Skipping pull request that is no longer accessible")
			if err := state.Skip(candidate, err.Error(), c.now()); err != nil {
				return nil, apperrors.NewInternalError("failed to record skipped pull request", err)
			}
		default:
			return c.fail(ctx, r, err)
		}

		if err := c.save(ctx, r); err != nil {
			return nil, err
		}
		c.opts.OnProgress(Event{
			State:     StateEnriching,
			Number:    candidate.Number,
			Processed: len(state.Results),
			Skipped:   len(state.Skipped),
			Total:     len(state.Candidates),
		})
	}

	return c.assemble(ctx, r)
}

// gate consults the quota before a remote step. A non-nil outcome means
// the run stops here.
func (c *Controller) gate(ctx context.Context, r *run) (*Outcome, error) {
	q, err := collector.CheckQuota(ctx, c.collector)
	if err != nil {
		return c.fail(ctx, r, err)
	}
	r.outcome.Quota = &q

	if q.Below(c.opts.QuotaThreshold) {
		reason := fmt.Sprintf("quota %d below threshold %d, resets at %s",
			q.Remaining, c.opts.QuotaThreshold, q.ResetAt.Format(time.RFC3339))
		return c.suspend(ctx, r, reason, nil)
	}
	return nil, nil
}

// fail maps a remote failure onto suspension or a returned error
func (c *Controller) fail(ctx context.Context, r *run, err error) (*Outcome, error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.suspend(ctx, r, "cancelled", err)
	case apperrors.IsTransient(err):
		return c.suspend(ctx, r, "transient API failure", err)
	case apperrors.IsQuotaExhausted(err):
		return c.suspend(ctx, r, "rate limited by GitHub", err)
	default:
		return nil, err
	}
}

// suspend leaves a resumable checkpoint on disk and reports progress
func (c *Controller) suspend(ctx context.Context, r *run, reason string, cause error) (*Outcome, error) {
	if !r.persisted {
		if err := c.save(ctx, r); err != nil {
			return nil, err
		}
	}

	c.count(r)
	r.outcome.State = StateSuspended
	r.outcome.Reason = reason
	r.outcome.Cause = cause

	entry := r.logger.WithFields(log.Fields{
		"processed": r.outcome.Processed,
		"skipped":   r.outcome.Skipped,
		"remaining": r.outcome.Remaining,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Warnf("Run suspended: %s", reason)
	return r.outcome, nil
}

// assemble writes the report and discards the checkpoint
func (c *Controller) assemble(ctx context.Context, r *run) (*Outcome, error) {
	c.transition(r, StateAssembling)

	repo, err := c.collector.GetRepository(ctx, r.state.Config.Owner, r.state.Config.Name)
	if err != nil {
		return c.fail(ctx, r, fmt.Errorf("failed to fetch repository metadata: %w", err))
	}

	report := domain.NewReport(r.state, collector.RepoInfoOf(repo), c.now())
	if err := jsonfile.WriteAtomic(c.opts.ReportPath, report); err != nil {
		return nil, apperrors.NewPersistenceError("failed to write report", err)
	}

	if err := c.store.Discard(context.WithoutCancel(ctx)); err != nil {
		r.logger.WithError(err).Warn("Report written but checkpoint could not be removed")
	}

	c.count(r)
	r.outcome.State = StateDone
	r.outcome.Report = report
	r.outcome.ReportPath = c.opts.ReportPath
	c.transition(r, StateDone)
	r.logger.WithFields(log.Fields{
		"merged":  report.PeriodStats.Merged,
		"skipped": report.PeriodStats.Skipped,
		"report":  c.opts.ReportPath,
	}).Info("Run complete")
	return r.outcome, nil
}

// save persists the state even when ctx is already cancelled, so that a
// completed enrichment is never lost to an interrupt
func (c *Controller) save(ctx context.Context, r *run) error {
	if err := c.store.Save(context.WithoutCancel(ctx), r.state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	r.persisted = true
	return nil
}

func (c *Controller) transition(r *run, s State) {
	r.outcome.State = s
	r.logger.WithField("state", s).Debug("State transition")
	c.opts.OnProgress(Event{
		State:     s,
		Processed: len(r.state.Results),
		Skipped:   len(r.state.Skipped),
		Total:     len(r.state.Candidates),
	})
}

func (c *Controller) count(r *run) {
	r.outcome.Processed = len(r.state.Results)
	r.outcome.Skipped = len(r.state.Skipped)
	r.outcome.Remaining = len(r.state.Pending())
}

func (c *Controller) now() time.Time {
	return c.opts.Now().UTC()
}
