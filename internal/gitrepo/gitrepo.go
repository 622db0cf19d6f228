// Package gitrepo drives the publish repository through the git binary.
// The pipeline has no locking of its own: git's atomic ref update is the
// only concurrency control, so a push either fast-forwards or fails.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Repo is a fresh clone of the publish repository.
type Repo struct {
	Dir    string
	Branch string
	env    []string
}

// Clone clones url at branch into dest. The clone is always fresh; no
// checkout state survives between runs. extraEnv carries credential
// settings such as GIT_SSH_COMMAND.
func Clone(ctx context.Context, url, branch, dest string, extraEnv []string) (*Repo, error) {
	r := &Repo{Dir: dest, Branch: branch, env: extraEnv}

	out, err := r.git(ctx, "", "clone", "--branch", branch, "--single-branch", url, dest)
	if err != nil {
		// The branch may not exist yet (first publish into an empty
		// repository). Fall back to a plain clone and create it.
		if out2, err2 := r.git(ctx, "", "clone", url, dest); err2 != nil {
			return nil, fmt.Errorf("git clone failed: %s: %w", firstOutput(out, out2), err)
		}
		if out3, err3 := r.git(ctx, dest, "checkout", "-B", branch); err3 != nil {
			return nil, fmt.Errorf("git checkout -B %s failed: %s: %w", branch, out3, err3)
		}
	}

	return r, nil
}

// Status returns the porcelain status of the working tree.
func (r *Repo) Status(ctx context.Context) (string, error) {
	out, err := r.git(ctx, r.Dir, "status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status failed: %s: %w", out, err)
	}
	return out, nil
}

// Change is one working-tree difference from the committed state.
type Change struct {
	Path   string
	Action string // "new", "modified", "removed"
}

// Changes parses the porcelain status into structured changes. An empty
// slice means the regenerated tree is byte-for-byte what is already
// published.
func (r *Repo) Changes(ctx context.Context) ([]Change, error) {
	out, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		changes = append(changes, Change{Path: path, Action: actionFor(code)})
	}
	return changes, nil
}

func actionFor(code string) string {
	switch {
	case code == "??" || strings.Contains(code, "A"):
		return "new"
	case strings.Contains(code, "D"):
		return "removed"
	default:
		return "modified"
	}
}

// AddAll stages every working-tree change, deletions included.
func (r *Repo) AddAll(ctx context.Context) error {
	if out, err := r.git(ctx, r.Dir, "add", "-A"); err != nil {
		return fmt.Errorf("git add failed: %s: %w", out, err)
	}
	return nil
}

// Commit records the staged changes with the given identity.
func (r *Repo) Commit(ctx context.Context, message, authorName, authorEmail string) error {
	out, err := r.git(ctx, r.Dir,
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "-m", message)
	if err != nil {
		return fmt.Errorf("git commit failed: %s: %w", out, err)
	}
	return nil
}

// Push pushes the branch. A non-fast-forward rejection (remote moved under
// a concurrent publish) surfaces as an error; there is no retry.
func (r *Repo) Push(ctx context.Context) error {
	if out, err := r.git(ctx, r.Dir, "push", "origin", r.Branch); err != nil {
		return fmt.Errorf("git push failed: %s: %w", out, err)
	}
	return nil
}

// Head resolves the current commit SHA.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, r.Dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %s: %w", out, err)
	}
	return out, nil
}

func (r *Repo) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, r.env...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// CurrentBranch returns the checked-out branch of the repository at dir.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolving current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func firstOutput(outputs ...string) string {
	for _, out := range outputs {
		if out != "" {
			return out
		}
	}
	return ""
}
