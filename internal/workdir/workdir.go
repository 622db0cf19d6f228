// Package workdir manages per-run scratch directories. Every pipeline run
// works in fresh scratch space; nothing is carried over between runs, so a
// publish diff is always computed against the true remote state.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a scratch directory for one pipeline run.
type Dir struct {
	path string
}

// New creates a scratch directory labeled for the operation ("verify",
// "publish", ...). The label shows up in the path to keep debugging of
// aborted CI runs sane.
func New(label string) (*Dir, error) {
	path, err := os.MkdirTemp("", "blogctl-"+label+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the scratch directory root.
func (d *Dir) Path() string {
	return d.path
}

// Sub creates and returns a named subdirectory.
func (d *Dir) Sub(name string) (string, error) {
	sub := filepath.Join(d.path, name)
	if err := os.MkdirAll(sub, 0755); err != nil {
		return "", fmt.Errorf("creating scratch subdirectory %s: %w", name, err)
	}
	return sub, nil
}

// Cleanup removes the scratch directory and everything under it.
// Safe to defer; errors are deliberately dropped; scratch space on a CI
// runner is discarded with the runner anyway.
func (d *Dir) Cleanup() {
	_ = os.RemoveAll(d.path)
}
