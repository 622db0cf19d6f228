package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/byo/bswieckidev-blog/internal/config"
	"github.com/byo/bswieckidev-blog/internal/credential"
	"github.com/byo/bswieckidev-blog/internal/gitrepo"
	"github.com/byo/bswieckidev-blog/internal/sandbox"
	"github.com/byo/bswieckidev-blog/internal/site"
	"github.com/byo/bswieckidev-blog/internal/workdir"
)

// The hosting provider routes custom domains through this marker file. It
// is deployment metadata, not content, so it lives here and never in the
// content tree.
const domainMarkerFile = "CNAME"

// PublishEngine mirrors a freshly generated site into the publish
// repository. The push is the only externally visible mutation: any
// failure before it leaves the remote untouched, and an empty diff ends
// the run as a successful no-op.
type PublishEngine struct {
	Config      config.Config
	ProjectRoot string
}

// PublishOptions configures a publish run.
type PublishOptions struct {
	// DryRun stops after the diff, committing and pushing nothing.
	DryRun bool
	// AllowAnyBranch disables the trunk gate.
	AllowAnyBranch bool
}

// Publish runs the publish job.
func (e *PublishEngine) Publish(ctx context.Context, opts PublishOptions) (*PublishResult, error) {
	result := &PublishResult{RunID: uuid.NewString(), DryRun: opts.DryRun}

	if errs := config.ValidatePublish(&e.Config); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}

	branch, err := e.currentBranch(ctx)
	if err != nil {
		return nil, err
	}
	result.Branch = branch
	if !opts.AllowAnyBranch && branch != e.Config.Publish.Trunk {
		return nil, fmt.Errorf("refusing to publish from branch %q: only the trunk %q publishes (use --allow-any-branch to override)",
			branch, e.Config.Publish.Trunk)
	}

	// Credential preparation fails closed before anything external is
	// touched; a key that cannot be locked down is never used.
	env, err := credential.Env(e.Config.Publish.KeyPath)
	if err != nil {
		return nil, err
	}

	scratch, err := workdir.New("publish")
	if err != nil {
		return nil, err
	}
	defer scratch.Cleanup()

	cloneDir, err := scratch.Sub("site")
	if err != nil {
		return nil, err
	}

	// Fresh clone every run: the diff below is against the true current
	// published state, never a stale local cache.
	repo, err := gitrepo.Clone(ctx, e.Config.Publish.Repo, e.Config.Publish.Branch, cloneDir, env)
	if err != nil {
		return nil, err
	}

	if err := sandbox.ClearTree(repo.Dir, ".git"); err != nil {
		return nil, fmt.Errorf("clearing publish working tree: %w", err)
	}

	if domain := e.Config.Publish.Domain; domain != "" {
		if err := sandbox.SafeWrite(repo.Dir, domainMarkerFile, []byte(domain+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("writing domain marker: %w", err)
		}
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
	if err := site.CopyTree(out, repo.Dir); err != nil {
		return nil, fmt.Errorf("mirroring output into publish clone: %w", err)
	}

	changes, err := repo.Changes(ctx)
	if err != nil {
		return nil, err
	}
	result.Changes = changes

	// Zero diff is the expected steady state, not an error: rerunning
	// publish without a content change must not move the remote.
	if len(changes) == 0 {
		result.NoOp = true
		return result, nil
	}

	if opts.DryRun {
		return result, nil
	}

	if err := repo.AddAll(ctx); err != nil {
		return nil, err
	}
	if err := repo.Commit(ctx, e.Config.Publish.CommitMessage, e.Config.Publish.AuthorName, e.Config.Publish.AuthorEmail); err != nil {
		return nil, err
	}
	result.Committed = true

	if result.Commit, err = repo.Head(ctx); err != nil {
		return nil, err
	}

	if err := repo.Push(ctx); err != nil {
		return nil, err
	}
	result.Pushed = true

	return result, nil
}

// currentBranch prefers the CI platform's notion of the branch and falls
// back to asking git about the project root.
func (e *PublishEngine) currentBranch(ctx context.Context) (string, error) {
	if branch := config.CIBranch(); branch != "" {
		return branch, nil
	}
	return gitrepo.CurrentBranch(ctx, e.ProjectRoot)
}
