package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/byo/bswieckidev-blog/internal/config"
)

// The fake generator renders every post under content/posts/ into
// public/posts/<stem>/index.html plus a homepage. Pure function of the
// content tree, so repeated builds are byte-identical.
const fakeGeneratorScript = `#!/bin/sh
set -e
mkdir -p public
echo '<html><body>home</body></html>' > public/index.html
for f in content/posts/*.md; do
  [ -e "$f" ] || continue
  name=$(basename "$f" .md)
  mkdir -p "public/posts/$name"
  {
    echo '<html><body><pre>'
    cat "$f"
    echo '</pre></body></html>'
  } > "public/posts/$name/index.html"
done
`

func requirePipelineTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fixtures use shell scripts")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// newProject builds a project root with content, a fake generator, and a
// seeded bare publish repository. Returns the root and the configured repo.
func newProject(t *testing.T, script string) (string, config.Config) {
	t.Helper()

	root := t.TempDir()
	postsDir := filepath.Join(root, "content", "posts")
	if err := os.MkdirAll(postsDir, 0755); err != nil {
		t.Fatal(err)
	}
	writePost(t, root, "throttling-in-go",
		"---\ntitle: \"Throttling in Go\"\ndate: 2022-10-07\ntags: [go]\n---\n\nToken buckets.\n")

	genPath := filepath.Join(root, "fakegen")
	if err := os.WriteFile(genPath, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	bare := filepath.Join(t.TempDir(), "live.git")
	gitRun(t, "", "init", "--bare", "-b", "master", bare)
	seedDir := filepath.Join(t.TempDir(), "seed")
	gitRun(t, "", "clone", bare, seedDir)
	if err := os.WriteFile(filepath.Join(seedDir, "index.html"), []byte("placeholder"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(seedDir, "stale.txt"), []byte("left over from an old generator"), 0644); err != nil {
		t.Fatal(err)
	}
	gitRun(t, seedDir, "checkout", "-B", "master")
	gitRun(t, seedDir, "add", "-A")
	gitRun(t, seedDir, "commit", "-m", "seed")
	gitRun(t, seedDir, "push", "origin", "master")

	cfg := config.Config{Version: 1}
	cfg.Content.Dir = "content"
	cfg.Content.StaticDir = "static"
	cfg.Generator.Command = genPath
	cfg.Generator.OutputDir = "public"
	cfg.Publish.Repo = bare
	cfg.Publish.Branch = "master"
	cfg.Publish.Trunk = "master"
	cfg.Publish.Domain = "example.dev"
	cfg.Publish.CommitMessage = "Site updated"
	cfg.Publish.AuthorName = "blogctl"
	cfg.Publish.AuthorEmail = "blogctl@localhost"

	return root, cfg
}

func writePost(t *testing.T, root, stem, body string) {
	t.Helper()
	p := filepath.Join(root, "content", "posts", stem+".md")
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test.com")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %s: %v", args, out, err)
	}
}

func gitOut(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return strings.TrimSpace(string(out))
}

func commitCount(t *testing.T, bare string) int {
	t.Helper()
	out := gitOut(t, bare, "rev-list", "--count", "master")
	n := 0
	for _, c := range out {
		n = n*10 + int(c-'0')
	}
	return n
}

// onTrunk pins the CI branch detection for the test.
func onTrunk(t *testing.T, branch string) {
	t.Helper()
	t.Setenv("GITHUB_REF_NAME", branch)
	t.Setenv("CI_COMMIT_BRANCH", "")
}
