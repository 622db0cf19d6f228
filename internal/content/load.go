package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Tree is the loaded content source tree.
type Tree struct {
	Documents []*Document
}

// LoadError collects every document failure found in one pass so a broken
// tree is reported whole, not one file at a time.
type LoadError struct {
	Errors []*DocumentError
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, de := range e.Errors {
		msgs[i] = de.Error()
	}
	return fmt.Sprintf("%d content error(s):\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// LoadTree walks dir and parses every Markdown file. Hidden files and
// directories are skipped. A missing or malformed title or date in any
// document fails the load.
func LoadTree(dir string) (*Tree, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("content directory %s: %w", dir, err)
	}

	tree := &Tree{}
	var loadErr LoadError

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !isMarkdown(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}

		src, readErr := os.ReadFile(p)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", p, readErr)
		}

		doc, parseErr := ParseDocument(rel, src)
		if parseErr != nil {
			var de *DocumentError
			if errors.As(parseErr, &de) {
				loadErr.Errors = append(loadErr.Errors, de)
				return nil
			}
			return parseErr
		}

		tree.Documents = append(tree.Documents, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking content tree: %w", err)
	}

	if len(loadErr.Errors) > 0 {
		return nil, &loadErr
	}

	// Newest first, undated never (dates are mandatory, so no zero guard).
	sort.Slice(tree.Documents, func(i, j int) bool {
		if tree.Documents[i].Date.Equal(tree.Documents[j].Date) {
			return tree.Documents[i].SourcePath < tree.Documents[j].SourcePath
		}
		return tree.Documents[i].Date.After(tree.Documents[j].Date)
	})

	return tree, nil
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// Permalinks returns the set of published URL paths. Drafts are excluded:
// they parse and validate but do not join the published namespace.
func (t *Tree) Permalinks() map[string]bool {
	out := make(map[string]bool, len(t.Documents))
	for _, doc := range t.Documents {
		if doc.Draft {
			continue
		}
		out[doc.Permalink] = true
	}
	return out
}

// Drafts counts documents marked draft.
func (t *Tree) Drafts() int {
	n := 0
	for _, doc := range t.Documents {
		if doc.Draft {
			n++
		}
	}
	return n
}
