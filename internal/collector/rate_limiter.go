package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// fanOut is the number of requests one enrichment issues at once
const fanOut = 4

// Pacer spaces requests to GitHub.
// It never blocks on quota; suspending on low quota is the crawler's call.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one request per interval with bursts of one enrichment
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, fanOut)}
}

// Wait waits until it's safe to make another API call. A wait that would
// outlast the context deadline reports context.DeadlineExceeded.
func (p *Pacer) Wait(ctx context.Context) error {
	err := p.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Observe logs the rate headers of a response
func (p *Pacer) Observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	log.WithFields(log.Fields{
		"remaining": resp.Rate.Remaining,
		"reset":     resp.Rate.Reset.Time.UTC().Format(time.RFC3339),
	}).Trace("github rate headers")
}
