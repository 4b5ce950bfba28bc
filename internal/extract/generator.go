// Package extract derives catalog metadata from raw artifact sources using
// text heuristics. Every heuristic is an independent function over the file
// content; none of them can fail, they fall back to the filename instead.
package extract

import (
	"strings"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// Metadata is the heuristic part of a catalog record.
type Metadata struct {
	Title        string
	Description  string
	Tags         []string
	Dependencies []string
}

// SearchText joins title, description and tags the way the index stores it.
func (m *Metadata) SearchText() string {
	return m.Title + " " + m.Description + " " + strings.Join(m.Tags, " ")
}

// Generator applies the heuristics for an artifact kind.
type Generator struct {
	keywords map[catalog.Kind][]string
}

// NewGenerator creates a generator. keywords adds filename tag keywords per
// kind on top of the built-in ones; it may be nil.
func NewGenerator(keywords map[catalog.Kind][]string) *Generator {
	k := make(map[catalog.Kind][]string, len(keywords))
	for kind, words := range keywords {
		k[kind] = append([]string(nil), words...)
	}
	return &Generator{keywords: k}
}

// GenerateMetadata runs the heuristics for kind over content.
func (g *Generator) GenerateMetadata(kind catalog.Kind, filename string, content []byte) *Metadata {
	text := string(content)
	extra := g.keywords[kind]

	var meta Metadata
	switch kind {
	case catalog.KindMarkup:
		meta = Metadata{
			Title:        MarkupTitle(text, filename),
			Description:  MarkupDescription(text),
			Tags:         MarkupTags(text, filename, extra...),
			Dependencies: MarkupDependencies(text),
		}
	default:
		meta = Metadata{
			Title:        ComponentTitle(text, filename),
			Description:  ComponentDescription(text),
			Tags:         ComponentTags(text, filename, extra...),
			Dependencies: ComponentDependencies(text),
		}
	}

	if meta.Title == "" {
		meta.Title = filename
	}
	return &meta
}
