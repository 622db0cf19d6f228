package config

import (
	"os"
	"strings"
)

// Environment variables consumed from the CI platform's secret/variable
// store. Secrets are never hardcoded in site.yaml; when both are present
// the environment wins.
const (
	EnvDeployKey   = "BLOGCTL_DEPLOY_KEY"
	EnvPublishRepo = "BLOGCTL_PUBLISH_REPO"
	EnvDomain      = "BLOGCTL_DOMAIN"
)

// ApplyEnv overlays CI-supplied values onto the config.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDeployKey)); v != "" {
		c.Publish.KeyPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPublishRepo)); v != "" {
		c.Publish.Repo = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDomain)); v != "" {
		c.Publish.Domain = v
	}
}

// CIBranch returns the branch the CI platform reports for the current run,
// or "" when not running under a recognized CI. Checked in order: GitHub
// Actions, GitLab CI.
func CIBranch() string {
	for _, key := range []string{"GITHUB_REF_NAME", "CI_COMMIT_BRANCH"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
