package collector

import (
	"context"
	"fmt"
	"net/http"

	ghauth "github.com/jferrl/go-githubauth"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-pr-metrics/internal/config"
	apperrors "github.com/kurihiro0119/github-pr-metrics/internal/errors"
)

// NewHTTPClient returns an authenticated HTTP client: a self-renewing GitHub
// App installation token when app credentials are configured, otherwise the
// given personal access token.
func NewHTTPClient(ctx context.Context, cfg *config.Config, token string) (*http.Client, error) {
	if cfg.HasAppCredentials() {
		appTokenSource, err := ghauth.NewApplicationTokenSource(cfg.GitHubAppID, []byte(cfg.GitHubAppPrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub App token source: %w", err)
		}

		opts := []ghauth.InstallationTokenSourceOpt{ghauth.WithContext(ctx)}
		if cfg.GitHubAPIURL != "" {
			opts = append(opts, ghauth.WithEnterpriseURLs(cfg.GitHubAPIURL, cfg.GitHubAPIURL))
		}
		log.Infof("using GitHub App credentials for installation %d", cfg.GitHubAppInstallationID)
		installationTokenSource := ghauth.NewInstallationTokenSource(cfg.GitHubAppInstallationID, appTokenSource, opts...)
		return oauth2.NewClient(ctx, installationTokenSource), nil
	}

	if token == "" {
		return nil, apperrors.NewUnauthorizedError("no GitHub credential available", nil)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return oauth2.NewClient(ctx, ts), nil
}
