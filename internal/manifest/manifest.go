// Package manifest snapshots a generated output tree as content hashes.
// Two builds of the same content must produce the same manifest; file
// timestamps and directory walk order never enter the hash, so
// reproducibility is judged on bytes alone.
package manifest

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"
)

// Manifest describes one output tree.
type Manifest struct {
	Version  int                 `yaml:"version"`
	TreeHash string              `yaml:"tree_hash"`
	Files    map[string]FileHash `yaml:"files"`
}

// FileHash records the content hash and size of a single output file.
type FileHash struct {
	Blake3 string `yaml:"blake3"`
	Size   int64  `yaml:"size"`
}

// Build walks dir and hashes every file. The .git directory of a publish
// clone is not part of the published tree and is skipped.
func Build(dir string) (*Manifest, error) {
	m := &Manifest{Version: 1, Files: make(map[string]FileHash)}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" && p != dir {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}

		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", p, readErr)
		}

		sum := blake3.Sum256(data)
		m.Files[filepath.ToSlash(rel)] = FileHash{
			Blake3: hex.EncodeToString(sum[:]),
			Size:   int64(len(data)),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking output tree %s: %w", dir, err)
	}

	m.TreeHash = treeHash(m.Files)
	return m, nil
}

// treeHash folds the sorted (path, hash) sequence into a single digest.
func treeHash(files map[string]FileHash) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := blake3.New(32, nil)
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(files[p].Blake3))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Delta is the difference between two manifests.
type Delta struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the two trees were identical.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (d Delta) String() string {
	return fmt.Sprintf("%d added, %d removed, %d changed", len(d.Added), len(d.Removed), len(d.Changed))
}

// Diff compares two manifests, reporting paths in b relative to a.
func Diff(a, b *Manifest) Delta {
	var d Delta
	for p, fh := range b.Files {
		old, ok := a.Files[p]
		switch {
		case !ok:
			d.Added = append(d.Added, p)
		case old.Blake3 != fh.Blake3:
			d.Changed = append(d.Changed, p)
		}
	}
	for p := range a.Files {
		if _, ok := b.Files[p]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

// Save writes a manifest atomically using a temp file and rename.
func Save(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp manifest %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp manifest to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Version != 1 {
		return nil, fmt.Errorf("manifest %s: unsupported version %d", path, m.Version)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileHash)
	}
	if got := treeHash(m.Files); !strings.EqualFold(got, m.TreeHash) {
		return nil, fmt.Errorf("manifest %s: tree hash does not match file entries", path)
	}
	return &m, nil
}
