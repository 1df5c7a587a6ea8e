package config

import (
	log "github.com/sirupsen/logrus"
	"github.com/tcnksm/go-gitconfig"
)

// HasAppCredentials reports whether GitHub App authentication is configured
func (c *Config) HasAppCredentials() bool {
	return c.GitHubAppID != 0 && c.GitHubAppPrivateKey != ""
}

// ResolveToken picks the personal access token: the explicit value first,
// then GITHUB_TOKEN, then github.token from git config.
func (c *Config) ResolveToken(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.GitHubToken != "" {
		return c.GitHubToken
	}

	log.Infof("No GitHub token environment variable, checking git config")
	token, err := gitconfig.GithubToken()
	if err != nil {
		log.WithError(err).Debug("unable to retrieve GitHub token from git config")
		return ""
	}
	return token
}

// ValidateCrawl checks that a crawl has some way to authenticate
func (c *Config) ValidateCrawl(token string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if token == "" && !c.HasAppCredentials() {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token or GitHub App credentials are required"}
	}
	return nil
}
