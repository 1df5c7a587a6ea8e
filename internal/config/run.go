package config

import (
	"strings"
	"time"

	"github.com/kurihiro0119/github-pr-metrics/internal/domain"
)

// ParseRunConfig builds a run config from "owner/name" and two calendar dates
func ParseRunConfig(repo, from, until, credential string) (domain.RunConfig, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return domain.RunConfig{}, &ConfigError{Field: "repo", Message: "must be in owner/name form"}
	}

	fromDate, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return domain.RunConfig{}, &ConfigError{Field: "from", Message: "must be a date (YYYY-MM-DD)"}
	}
	untilDate, err := time.Parse(domain.DateLayout, until)
	if err != nil {
		return domain.RunConfig{}, &ConfigError{Field: "until", Message: "must be a date (YYYY-MM-DD)"}
	}
	if untilDate.Before(fromDate) {
		return domain.RunConfig{}, &ConfigError{Field: "until", Message: "must not be before from"}
	}

	return domain.RunConfig{
		Owner:      owner,
		Name:       name,
		From:       fromDate,
		Until:      untilDate,
		Credential: credential,
	}, nil
}
