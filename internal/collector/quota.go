package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
)

// Quota is the remaining API budget of the credential
type Quota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

func newQuota(rate *github.Rate) Quota {
	remaining := rate.Remaining
	if remaining < 0 {
		remaining = 0
	}
	return Quota{
		Limit:     rate.Limit,
		Remaining: remaining,
		ResetAt:   rate.Reset.Time,
	}
}

// Below reports whether fewer than threshold calls remain
func (q Quota) Below(threshold int) bool {
	return q.Remaining < threshold
}

// CheckQuota queries the current budget. It is not cached: other consumers
// of the same credential may spend it between two checks.
func CheckQuota(ctx context.Context, c Collector) (Quota, error) {
	q, err := c.GetRateLimit(ctx)
	if err != nil {
		return Quota{}, fmt.Errorf("failed to check quota: %w", err)
	}
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	return q, nil
}
