// Package site invokes the external static-site generator. The generator
// is a black box: a command that consumes the content tree and leaves a
// static output tree behind, exit code zero meaning success.
package site

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Generator describes the external build command. The command runs in the
// project root; its output lands in OutputDir relative to that root.
type Generator struct {
	Command   string
	Args      []string
	OutputDir string
}

// BuildError carries the generator's combined output for the CI log.
type BuildError struct {
	Command string
	Output  string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("generator %q failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("generator %q failed: %v\n%s", e.Command, e.Err, e.Output)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Build runs the generator in root and returns the absolute output
// directory. The previous output is removed first so stale files from
// removed content cannot leak into the fresh tree.
func (g Generator) Build(ctx context.Context, root string) (string, error) {
	if g.Command == "" {
		return "", fmt.Errorf("generator command is empty")
	}

	outDir := g.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	if err := os.RemoveAll(outDir); err != nil {
		return "", fmt.Errorf("clearing previous output %s: %w", outDir, err)
	}

	cmd := exec.CommandContext(ctx, g.Command, g.Args...)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &BuildError{Command: g.Command, Output: strings.TrimSpace(string(out)), Err: err}
	}

	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("generator exited 0 but produced no output directory at %s", outDir)
	}

	return outDir, nil
}

// CopyTree mirrors the files under src into dst, creating directories as
// needed. File modes are preserved; timestamps are not, the pipeline never
// reads them.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}

	if info, err := os.Stat(src); err == nil {
		_ = os.Chmod(dst, info.Mode().Perm())
	}
	return nil
}
