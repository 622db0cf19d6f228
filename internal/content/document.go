package content

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Document is a single Markdown content file with parsed front matter.
// Documents are read once per build and never mutated by the pipeline.
type Document struct {
	// SourcePath is the path relative to the content directory, with
	// forward slashes.
	SourcePath string
	Title      string
	Date       time.Time
	Tags       []string
	Slug       string
	Summary    string
	Draft      bool
	// Permalink is the site-absolute URL path the generator will publish
	// this document under, with leading and trailing slashes.
	Permalink string
	Body      []byte
	Custom    map[string]any
}

// frontMatterEnvelope mirrors the delimited YAML block at the top of each
// document. Unknown keys are preserved in the inline map.
type frontMatterEnvelope struct {
	Title   string         `yaml:"title"`
	Date    string         `yaml:"date"`
	Tags    []string       `yaml:"tags"`
	Slug    string         `yaml:"slug"`
	Summary string         `yaml:"summary"`
	Draft   bool           `yaml:"draft"`
	Custom  map[string]any `yaml:",inline"`
}

func (env frontMatterEnvelope) validate() error {
	return validation.ValidateStruct(&env,
		validation.Field(&env.Title, validation.Required.Error("must be a non-empty string")),
		validation.Field(&env.Date, validation.Required.Error("must be set")),
	)
}

// Accepted front-matter date layouts, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DocumentError associates a parse or validation failure with its file.
type DocumentError struct {
	Path string
	Err  error
	Hint string
}

func (e *DocumentError) Error() string {
	s := e.Path + ": " + e.Err.Error()
	if e.Hint != "" {
		s += " (" + e.Hint + ")"
	}
	return s
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// ParseDocument parses one content file. relPath is the path relative to the
// content directory. Any missing or malformed required field is fatal.
func ParseDocument(relPath string, src []byte) (*Document, error) {
	rel := filepath.ToSlash(relPath)

	var env frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(src), &env)
	if err != nil {
		return nil, &DocumentError{
			Path: rel,
			Err:  fmt.Errorf("parsing front matter: %w", err),
			Hint: "the block between the --- delimiters must be valid YAML",
		}
	}

	if err := env.validate(); err != nil {
		return nil, &DocumentError{Path: rel, Err: fmt.Errorf("front matter: %w", err)}
	}

	date, err := parseDate(env.Date)
	if err != nil {
		return nil, &DocumentError{
			Path: rel,
			Err:  err,
			Hint: "use YYYY-MM-DD or an RFC3339 timestamp",
		}
	}

	return &Document{
		SourcePath: rel,
		Title:      env.Title,
		Date:       date,
		Tags:       normalizeTags(env.Tags),
		Slug:       env.Slug,
		Summary:    env.Summary,
		Draft:      env.Draft,
		Permalink:  permalink(rel, env.Slug),
		Body:       body,
		Custom:     env.Custom,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// normalizeTags trims whitespace, drops empties, collapses duplicates and
// sorts; tag order is not significant.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// permalink derives the published URL path from the content-relative source
// path: posts/foo.md -> /posts/foo/. A slug replaces the filename stem, and
// an index stem maps to its directory.
func permalink(rel, slug string) string {
	dir := path.Dir(rel)
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))

	if slug != "" {
		stem = slug
	}

	var p string
	switch {
	case stem == "index" && dir == ".":
		p = "/"
	case stem == "index":
		p = "/" + dir + "/"
	case dir == ".":
		p = "/" + stem + "/"
	default:
		p = "/" + dir + "/" + stem + "/"
	}
	return p
}
