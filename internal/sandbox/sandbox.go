// Package sandbox contains every destructive filesystem operation the
// publish pipeline performs on a clone of the publish repository. All paths
// are validated to stay inside the clone before anything is written or
// removed.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks that relPath stays within root after symlink
// resolution and normalization. Returns the resolved absolute path.
func ValidatePath(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The target may not exist yet; resolve the longest existing prefix.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// Trailing separator avoids "/site" matching "/site2".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' outside '%s'", relPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// path and reattaches the not-yet-existing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// SafeWrite atomically writes content to relPath inside root: temp file in
// the destination directory, fsync, then rename.
func SafeWrite(root, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return err
	}
	if _, err := ValidatePath(root, filepath.Dir(relPath)); err != nil {
		return fmt.Errorf("parent directory escapes sandbox: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".blogctl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// ClearTree removes every top-level entry of root except the names in keep.
// The publish flow uses it to empty a clone's working tree while preserving
// .git, so output from since-removed content cannot survive a regeneration.
func ClearTree(root string, keep ...string) error {
	realRoot, err := ValidatePath(root, ".")
	if err != nil {
		return err
	}

	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		keepSet[name] = true
	}

	entries, err := os.ReadDir(realRoot)
	if err != nil {
		return fmt.Errorf("reading %s: %w", realRoot, err)
	}

	for _, entry := range entries {
		if keepSet[entry.Name()] {
			continue
		}
		target, err := ValidatePath(root, entry.Name())
		if err != nil {
			return err
		}
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("removing %s: %w", target, err)
		}
	}

	return nil
}
