package engine

import (
	"context"
	"fmt"

	"github.com/byo/bswieckidev-blog/internal/config"
	"github.com/byo/bswieckidev-blog/internal/credential"
	"github.com/byo/bswieckidev-blog/internal/gitrepo"
	"github.com/byo/bswieckidev-blog/internal/manifest"
	"github.com/byo/bswieckidev-blog/internal/site"
	"github.com/byo/bswieckidev-blog/internal/workdir"
)

// StatusEngine reports drift between the live published tree and a fresh
// local build. It mutates nothing: no commit, no push, no marker write.
type StatusEngine struct {
	Config      config.Config
	ProjectRoot string
}

// Status clones the publish repository, builds the site locally, and
// diffs the two trees by content hash.
func (e *StatusEngine) Status(ctx context.Context) (*StatusResult, error) {
	if errs := config.ValidatePublish(&e.Config); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}

	env, err := credential.Env(e.Config.Publish.KeyPath)
	if err != nil {
		return nil, err
	}

	scratch, err := workdir.New("status")
	if err != nil {
		return nil, err
	}
	defer scratch.Cleanup()

	cloneDir, err := scratch.Sub("live")
	if err != nil {
		return nil, err
	}
	repo, err := gitrepo.Clone(ctx, e.Config.Publish.Repo, e.Config.Publish.Branch, cloneDir, env)
	if err != nil {
		return nil, err
	}

	live, err := manifest.Build(repo.Dir)
	if err != nil {
		return nil, fmt.Errorf("hashing live tree: %w", err)
	}

	gen := site.Generator{
		Command:   e.Config.Generator.Command,
		Args:      e.Config.Generator.Args,
		OutputDir: e.Config.Generator.OutputDir,
	}
	out, err := gen.Build(ctx, e.ProjectRoot)
	if err != nil {
		return nil, err
	}
	local, err := manifest.Build(out)
	if err != nil {
		return nil, fmt.Errorf("hashing local build: %w", err)
	}

	// The domain marker is deployment metadata the local build never
	// contains; ignore it so a published marker does not read as drift.
	delta := diffIgnoring(live, local, domainMarkerFile)

	return &StatusResult{
		InSync:    delta.Empty(),
		Delta:     delta,
		LiveHash:  live.TreeHash,
		LocalHash: local.TreeHash,
	}, nil
}

func diffIgnoring(live, local *manifest.Manifest, ignore ...string) manifest.Delta {
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}

	delta := manifest.Diff(live, local)
	keep := func(paths []string) []string {
		var out []string
		for _, p := range paths {
			if !ignored[p] {
				out = append(out, p)
			}
		}
		return out
	}
	delta.Added = keep(delta.Added)
	delta.Removed = keep(delta.Removed)
	delta.Changed = keep(delta.Changed)
	return delta
}
