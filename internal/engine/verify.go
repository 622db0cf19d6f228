package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/byo/bswieckidev-blog/internal/config"
	"github.com/byo/bswieckidev-blog/internal/content"
	"github.com/byo/bswieckidev-blog/internal/lint"
	"github.com/byo/bswieckidev-blog/internal/manifest"
	"github.com/byo/bswieckidev-blog/internal/site"
)

// VerifyEngine validates the content tree and proves the generator builds
// it reproducibly. It runs on every branch except the trunk, so any broken
// change is caught before it can reach publish. There is no retry: builds
// are deterministic, so a failed build only changes with a content fix.
type VerifyEngine struct {
	Config      config.Config
	ProjectRoot string
}

// Verify runs the verification job. Content and lint findings land in the
// result; only infrastructure failures (generator crash, unreadable tree)
// return an error.
func (e *VerifyEngine) Verify(ctx context.Context) (*VerifyResult, error) {
	result := &VerifyResult{}

	tree, err := content.LoadTree(filepath.Join(e.ProjectRoot, e.Config.Content.Dir))
	if err != nil {
		var le *content.LoadError
		if errors.As(err, &le) {
			for _, de := range le.Errors {
				result.ContentErrors = append(result.ContentErrors, de.Error())
			}
			return result, nil
		}
		return nil, err
	}
	result.Documents = len(tree.Documents)
	result.Drafts = tree.Drafts()

	static, err := lint.StaticSet(filepath.Join(e.ProjectRoot, e.Config.Content.StaticDir))
	if err != nil {
		return nil, fmt.Errorf("reading static assets: %w", err)
	}
	result.Problems = lint.CheckReferences(tree, static)

	gen := site.Generator{
		Command:   e.Config.Generator.Command,
		Args:      e.Config.Generator.Args,
		OutputDir: e.Config.Generator.OutputDir,
	}

	// Build twice and compare content hashes: a generator that embeds
	// build timestamps would turn every future publish into a spurious
	// diff, so it is rejected here instead.
	out, err := gen.Build(ctx, e.ProjectRoot)
	if err != nil {
		return nil, err
	}
	first, err := manifest.Build(out)
	if err != nil {
		return nil, err
	}

	out, err = gen.Build(ctx, e.ProjectRoot)
	if err != nil {
		return nil, err
	}
	second, err := manifest.Build(out)
	if err != nil {
		return nil, err
	}

	result.Reproducible = first.TreeHash == second.TreeHash
	result.TreeHash = second.TreeHash
	result.OutputFiles = len(second.Files)

	return result, nil
}
