// Package lint inspects content documents for broken internal references.
// It never renders the site (the generator owns rendering); it only walks
// the Markdown AST to find links that cannot resolve to anything the
// generator will publish.
package lint

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/byo/bswieckidev-blog/internal/content"
)

// Problem is a reference in a document that resolves to nothing published.
type Problem struct {
	Path string // document source path
	Ref  string // the offending destination as written
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify),
)

// CheckReferences walks every document's Markdown AST and flags internal
// references that resolve to no known document permalink or static file.
// static holds site-absolute static paths ("/css/site.css"). External URLs
// and bare fragments are not this tool's business.
func CheckReferences(tree *content.Tree, static map[string]bool) []Problem {
	links := tree.Permalinks()

	var problems []Problem
	for _, doc := range tree.Documents {
		for _, dest := range destinations(doc.Body) {
			if !checkable(dest) {
				continue
			}
			if !resolves(dest, doc, links, static) {
				problems = append(problems, Problem{Path: doc.SourcePath, Ref: dest})
			}
		}
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Path == problems[j].Path {
			return problems[i].Ref < problems[j].Ref
		}
		return problems[i].Path < problems[j].Path
	})
	return problems
}

// destinations collects link and image destinations from one document body.
func destinations(body []byte) []string {
	root := markdown.Parser().Parse(text.NewReader(body))

	var dests []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			dests = append(dests, string(v.Destination))
		case *ast.Image:
			dests = append(dests, string(v.Destination))
		}
		return ast.WalkContinue, nil
	})
	return dests
}

// checkable reports whether a destination is an internal reference this
// linter can judge: site-absolute paths and relative Markdown paths. Other
// relative paths may be produced by the generator and are left alone.
func checkable(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "/") {
		return true
	}
	return strings.HasSuffix(stripFragment(dest), ".md")
}

func resolves(dest string, doc *content.Document, links, static map[string]bool) bool {
	dest = stripFragment(dest)

	// Relative reference to another source document: resolve against the
	// referencing document's directory and compare permalinks.
	if !strings.HasPrefix(dest, "/") {
		target := path.Join(path.Dir(doc.SourcePath), dest)
		return links[sourceToPermalink(target)]
	}

	if links[withTrailingSlash(dest)] || links[dest] {
		return true
	}
	return static[dest]
}

func stripFragment(dest string) string {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i]
	}
	return dest
}

func withTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// sourceToPermalink maps a content-relative source path to its default
// permalink. Slug overrides cannot be derived from a path alone, so a
// slugged target referenced by source path is reported; that reference
// would break once published anyway.
func sourceToPermalink(rel string) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(stem) == "index" {
		stem = path.Dir(stem)
		if stem == "." {
			return "/"
		}
	}
	return "/" + stem + "/"
}

// StaticSet walks the static assets directory and returns its files as
// site-absolute paths. A missing directory yields an empty set; static
// assets are optional.
func StaticSet(dir string) (map[string]bool, error) {
	out := make(map[string]bool)

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

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
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}
		out["/"+filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
