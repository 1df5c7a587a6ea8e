package collector

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/go-github/v55/github"

	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

// classifyError maps a go-github failure onto the crawl error taxonomy
func classifyError(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return apperrors.NewQuotaExhaustedError("rate limited while fetching "+what, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return apperrors.NewQuotaExhaustedError("secondary rate limit while fetching "+what, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		switch {
		case status == http.StatusNotFound, status == http.StatusGone:
			return apperrors.NewNotFoundError(what, err)
		case status == http.StatusForbidden, status == http.StatusUnavailableForLegalReasons:
			return apperrors.NewInaccessibleError(what, err)
		case status == http.StatusUnauthorized:
			return apperrors.NewUnauthorizedError("GitHub rejected the credential while fetching "+what, err)
		case status == http.StatusTooManyRequests:
			return apperrors.NewQuotaExhaustedError("too many requests while fetching "+what, err)
		case status >= 400 && status < 500:
			return apperrors.NewRejectedError("GitHub rejected the request for "+what, err)
		}
	}

	// network failures and 5xx
	return apperrors.NewTransientAPIError("failed to fetch "+what, err)
}
