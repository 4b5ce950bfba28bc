package indexer

import (
	"path/filepath"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// Group is one source directory and the rules for cataloging it.
type Group struct {
	Source     catalog.Source
	Kind       catalog.Kind
	Dir        string
	Extensions []string
	PathPrefix string // public URL prefix, e.g. "/references/claude"
}

// DefaultGroups returns the two standard groups under referencesDir.
func DefaultGroups(referencesDir string) []Group {
	return []Group{
		{
			Source:     catalog.SourceClaude,
			Kind:       catalog.KindComponent,
			Dir:        filepath.Join(referencesDir, "claude"),
			Extensions: []string{".tsx", ".jsx"},
			PathPrefix: "/references/claude",
		},
		{
			Source:     catalog.SourceGemini,
			Kind:       catalog.KindMarkup,
			Dir:        filepath.Join(referencesDir, "gemini"),
			Extensions: []string{".html"},
			PathPrefix: "/references/gemini",
		},
	}
}
