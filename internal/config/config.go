package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the site.yaml configuration file.
type Config struct {
	Version   int       `yaml:"version"`
	Site      Site      `yaml:"site"`
	Content   Content   `yaml:"content"`
	Generator Generator `yaml:"generator"`
	Publish   Publish   `yaml:"publish"`
}

// Site holds site-wide metadata passed through to output where needed.
type Site struct {
	Title   string `yaml:"title,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// Content describes the source tree layout.
type Content struct {
	Dir       string `yaml:"dir"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// Generator describes the external static-site generator. The command is a
// black box: it runs in the project root and leaves its output in OutputDir.
type Generator struct {
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args,omitempty"`
	OutputDir string   `yaml:"output_dir"`
}

// Publish describes the external repository that hosts the served site.
type Publish struct {
	Repo          string `yaml:"repo"`
	Branch        string `yaml:"branch,omitempty"`
	Trunk         string `yaml:"trunk,omitempty"`
	Domain        string `yaml:"domain,omitempty"`
	KeyPath       string `yaml:"key_path,omitempty"`
	CommitMessage string `yaml:"commit_message,omitempty"`
	AuthorName    string `yaml:"author_name,omitempty"`
	AuthorEmail   string `yaml:"author_email,omitempty"`
}

// Defaults applied after unmarshal, before validation.
const (
	defaultContentDir    = "content"
	defaultStaticDir     = "static"
	defaultOutputDir     = "public"
	defaultBranch        = "master"
	defaultTrunk         = "master"
	defaultCommitMessage = "Site updated"
	defaultAuthorName    = "blogctl"
	defaultAuthorEmail   = "blogctl@users.noreply.github.com"
)

// Load reads and validates a site.yaml configuration file.
// Environment overrides (CI secret store) are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Content.Dir == "" {
		c.Content.Dir = defaultContentDir
	}
	if c.Content.StaticDir == "" {
		c.Content.StaticDir = defaultStaticDir
	}
	if c.Generator.OutputDir == "" {
		c.Generator.OutputDir = defaultOutputDir
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = defaultBranch
	}
	if c.Publish.Trunk == "" {
		c.Publish.Trunk = defaultTrunk
	}
	if c.Publish.CommitMessage == "" {
		c.Publish.CommitMessage = defaultCommitMessage
	}
	if c.Publish.AuthorName == "" {
		c.Publish.AuthorName = defaultAuthorName
	}
	if c.Publish.AuthorEmail == "" {
		c.Publish.AuthorEmail = defaultAuthorEmail
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d: only version 1 is supported", cfg.Version))
	}

	if cfg.Content.Dir == "" {
		errs = append(errs, "content.dir is required")
	}
	if cfg.Generator.Command == "" {
		errs = append(errs, "generator.command is required: the build command of your static-site generator")
	}
	if cfg.Generator.OutputDir == "" {
		errs = append(errs, "generator.output_dir is required")
	}

	return errs
}

// ValidatePublish checks the fields required only by publish and status runs.
// Verification-only runs never contact the publish repository, so these are
// not enforced by Load.
func ValidatePublish(cfg *Config) []string {
	var errs []string

	if cfg.Publish.Repo == "" {
		errs = append(errs, "publish.repo is required: set it in site.yaml or via BLOGCTL_PUBLISH_REPO")
	}
	if cfg.Publish.Branch == "" {
		errs = append(errs, "publish.branch is required")
	}

	return errs
}
