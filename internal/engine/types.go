package engine

import (
	"github.com/byo/bswieckidev-blog/internal/gitrepo"
	"github.com/byo/bswieckidev-blog/internal/lint"
	"github.com/byo/bswieckidev-blog/internal/manifest"
)

// VerifyResult holds the outcome of a verification run.
type VerifyResult struct {
	Documents     int
	Drafts        int
	Problems      []lint.Problem
	ContentErrors []string
	TreeHash      string
	OutputFiles   int
	Reproducible  bool
}

// Clean reports whether verification passed outright.
func (r *VerifyResult) Clean() bool {
	return len(r.Problems) == 0 && len(r.ContentErrors) == 0 && r.Reproducible
}

// PublishResult holds the outcome of a publish run.
type PublishResult struct {
	RunID     string
	Branch    string
	Changes   []gitrepo.Change
	NoOp      bool
	DryRun    bool
	Committed bool
	Commit    string
	Pushed    bool
}

// StatusResult compares the live published tree against a fresh local build.
type StatusResult struct {
	InSync    bool
	Delta     manifest.Delta
	LiveHash  string
	LocalHash string
}
