package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/byo/bswieckidev-blog/internal/credential"
)

func TestPublishEndToEnd(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "master")
	ctx := context.Background()

	root, cfg := newProject(t, fakeGeneratorScript)
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}
	base := commitCount(t, cfg.Publish.Repo)

	// First run publishes the rendered post and the domain marker.
	result, err := eng.Publish(ctx, PublishOptions{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.NoOp || !result.Committed || !result.Pushed {
		t.Fatalf("result = %+v, want a pushed commit", result)
	}
	if result.RunID == "" {
		t.Error("run ID missing")
	}
	if got := commitCount(t, cfg.Publish.Repo); got != base+1 {
		t.Fatalf("commits = %d, want %d", got, base+1)
	}

	check := filepath.Join(t.TempDir(), "check")
	gitRun(t, "", "clone", "--branch", "master", cfg.Publish.Repo, check)
	page := filepath.Join(check, "posts", "throttling-in-go", "index.html")
	if _, err := os.Stat(page); err != nil {
		t.Errorf("rendered page missing from remote: %v", err)
	}
	cname, err := os.ReadFile(filepath.Join(check, "CNAME"))
	if err != nil {
		t.Fatalf("domain marker missing: %v", err)
	}
	if string(cname) != "example.dev\n" {
		t.Errorf("CNAME = %q", cname)
	}
	if _, err := os.Stat(filepath.Join(check, "stale.txt")); err == nil {
		t.Error("pre-publish stale file should have been cleared")
	}

	// Second run with no content change is a guaranteed no-op.
	result, err = eng.Publish(ctx, PublishOptions{})
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if !result.NoOp || result.Committed || result.Pushed {
		t.Fatalf("result = %+v, want no-op", result)
	}
	if got := commitCount(t, cfg.Publish.Repo); got != base+1 {
		t.Errorf("commits = %d, no-op must not move the remote", got)
	}
}

func TestPublishRemovesOrphanedOutput(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "master")
	ctx := context.Background()

	root, cfg := newProject(t, fakeGeneratorScript)
	writePost(t, root, "doomed", "---\ntitle: Doomed\ndate: 2022-01-01\n---\nbye\n")
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}

	if _, err := eng.Publish(ctx, PublishOptions{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Delete the post; its generated page must disappear from the remote.
	if err := os.Remove(filepath.Join(root, "content", "posts", "doomed.md")); err != nil {
		t.Fatal(err)
	}
	result, err := eng.Publish(ctx, PublishOptions{})
	if err != nil {
		t.Fatalf("Publish after removal: %v", err)
	}
	if result.NoOp {
		t.Fatal("removal must produce a diff")
	}

	check := filepath.Join(t.TempDir(), "check")
	gitRun(t, "", "clone", "--branch", "master", cfg.Publish.Repo, check)
	if _, err := os.Stat(filepath.Join(check, "posts", "doomed", "index.html")); err == nil {
		t.Error("orphaned page survived on the remote")
	}
	if _, err := os.Stat(filepath.Join(check, "posts", "throttling-in-go", "index.html")); err != nil {
		t.Errorf("surviving post lost: %v", err)
	}
}

func TestPublishDryRunTouchesNothing(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "master")

	root, cfg := newProject(t, fakeGeneratorScript)
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}
	base := commitCount(t, cfg.Publish.Repo)

	result, err := eng.Publish(context.Background(), PublishOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.NoOp {
		t.Fatal("dry run on changed content should report a diff")
	}
	if len(result.Changes) == 0 {
		t.Error("dry run reported no changes")
	}
	if result.Committed || result.Pushed {
		t.Error("dry run must not commit or push")
	}
	if got := commitCount(t, cfg.Publish.Repo); got != base {
		t.Errorf("commits = %d, dry run moved the remote", got)
	}
}

func TestPublishBranchGate(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "feature/new-post")

	root, cfg := newProject(t, fakeGeneratorScript)
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}
	base := commitCount(t, cfg.Publish.Repo)

	_, err := eng.Publish(context.Background(), PublishOptions{})
	if err == nil {
		t.Fatal("expected refusal off trunk")
	}
	if got := commitCount(t, cfg.Publish.Repo); got != base {
		t.Errorf("commits = %d, refused publish moved the remote", got)
	}

	// The explicit override publishes anyway.
	result, err := eng.Publish(context.Background(), PublishOptions{AllowAnyBranch: true})
	if err != nil {
		t.Fatalf("Publish with override: %v", err)
	}
	if !result.Pushed {
		t.Errorf("result = %+v, want pushed", result)
	}
}

func TestPublishBadCredentialAbortsBeforeClone(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "master")

	root, cfg := newProject(t, fakeGeneratorScript)
	cfg.Publish.KeyPath = filepath.Join(t.TempDir(), "missing-key")
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}
	base := commitCount(t, cfg.Publish.Repo)

	_, err := eng.Publish(context.Background(), PublishOptions{})
	if err == nil {
		t.Fatal("expected credential failure")
	}
	var ce *credential.Error
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if got := commitCount(t, cfg.Publish.Repo); got != base {
		t.Errorf("commits = %d, credential failure must precede any remote contact", got)
	}
}

func TestPublishMissingRepoConfig(t *testing.T) {
	requirePipelineTools(t)
	onTrunk(t, "master")

	root, cfg := newProject(t, fakeGeneratorScript)
	cfg.Publish.Repo = ""
	eng := &PublishEngine{Config: cfg, ProjectRoot: root}

	if _, err := eng.Publish(context.Background(), PublishOptions{}); err == nil {
		t.Fatal("expected validation error without publish.repo")
	}
}
