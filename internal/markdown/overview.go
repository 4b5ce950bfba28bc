// Package markdown renders a human-readable overview of a metadata index.
//
// The overview is written as Markdown first, so the same text can be printed
// by the CLI, then rendered to HTML with goldmark for the server landing page.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bull/artifact-catalog/internal/catalog"
	"github.com/bull/artifact-catalog/internal/query"
)

// OverviewTitle is the top-level heading of every overview.
const OverviewTitle = "Artifact Catalog"

// Overview is a rendered catalog overview.
type Overview struct {
	Markdown []byte
	HTML     []byte
	TOC      []Entry
}

// Entry is one heading of the overview table of contents.
type Entry struct {
	Title    string
	ID       string // anchor generated from the heading text
	Children []Entry
}

// Renderer builds overviews. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with auto heading IDs so TOC entries can link to sections.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Renderer{md: md}
}

// Render writes the overview of idx as Markdown and HTML and extracts its TOC.
// A nil index renders an empty catalog.
func (r *Renderer) Render(idx *catalog.MetadataIndex) (*Overview, error) {
	src := Document(idx)

	doc := r.md.Parser().Parse(text.NewReader(src))

	tree, err := toc.Inspect(doc, src,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var html bytes.Buffer
	if err := r.md.Renderer().Render(&html, src, doc); err != nil {
		return nil, fmt.Errorf("render overview: %w", err)
	}

	return &Overview{
		Markdown: src,
		HTML:     html.Bytes(),
		TOC:      entries(tree.Items),
	}, nil
}

func entries(items toc.Items) []Entry {
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		out = append(out, Entry{
			Title:    string(item.Title),
			ID:       string(item.ID),
			Children: entries(item.Items),
		})
	}
	return out
}

// Document builds the Markdown source of the overview: a summary line, one
// section per source listing its artifacts in index order, then the tag and
// dependency aggregates.
func Document(idx *catalog.MetadataIndex) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", OverviewTitle)

	if idx == nil || len(idx.Files) == 0 {
		buf.WriteString("No artifacts have been indexed yet.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "%d artifacts, index version %s, last updated %s.\n\n",
		len(idx.Files), escape(idx.Version), idx.LastUpdated.UTC().Format("2006-01-02 15:04 MST"))

	bySource := make(map[catalog.Source][]catalog.FileMetadata)
	for _, f := range idx.Files {
		bySource[f.Source] = append(bySource[f.Source], f)
	}
	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, string(s))
	}
	sort.Strings(sources)

	for _, s := range sources {
		files := bySource[catalog.Source(s)]
		fmt.Fprintf(&buf, "## %s\n\n", escape(cases.Title(language.Und).String(s)))
		for _, f := range files {
			writeItem(&buf, f)
		}
		buf.WriteString("\n")
	}

	writeAggregate(&buf, "Tags", query.AllTags(idx.Files))
	writeAggregate(&buf, "Dependencies", query.AllDependencies(idx.Files))

	return buf.Bytes()
}

func writeItem(buf *bytes.Buffer, f catalog.FileMetadata) {
	fmt.Fprintf(buf, "- [%s](<%s>) (%s)", escape(f.Title), f.Path, escape(f.Filename))
	if f.Description != "" {
		fmt.Fprintf(buf, ": %s", escape(f.Description))
	}
	if len(f.Tags) > 0 {
		fmt.Fprintf(buf, " tags: %s", escape(strings.Join(f.Tags, ", ")))
	}
	buf.WriteString("\n")
}

func writeAggregate(buf *bytes.Buffer, heading string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(buf, "## %s\n\n%s\n\n", heading, escape(strings.Join(values, ", ")))
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `!`, `\!`, `|`, `\|`, `~`, `\~`,
	"\n", " ", "\r", " ",
)

// escape neutralizes Markdown syntax in extracted text.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}
