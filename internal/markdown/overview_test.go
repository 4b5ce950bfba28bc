package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/artifact-catalog/internal/catalog"
)

func sampleIndex() *catalog.MetadataIndex {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &catalog.MetadataIndex{
		Version:     catalog.IndexVersion,
		LastUpdated: updated,
		Files: []catalog.FileMetadata{
			{
				ID: "gemini-sales_report", Filename: "sales_report.html", Path: "/references/gemini/sales_report.html",
				Source: catalog.SourceGemini, Kind: catalog.KindMarkup, Title: "Quarterly *Sales*",
				Tags: []string{"chart", "report"}, Dependencies: []string{"chart.js"},
			},
			{
				ID: "claude-dashboard", Filename: "dashboard.tsx", Path: "/references/claude/dashboard.tsx",
				Source: catalog.SourceClaude, Kind: catalog.KindComponent, Title: "Sales Dashboard",
				Description: "Revenue at a glance", Tags: []string{"state", "chart"},
				Dependencies: []string{"react"},
			},
		},
	}
}

func TestRender_SectionsAndTOC(t *testing.T) {
	overview, err := NewRenderer().Render(sampleIndex())
	require.NoError(t, err)

	require.Len(t, overview.TOC, 1)
	root := overview.TOC[0]
	assert.Equal(t, OverviewTitle, root.Title)
	assert.Equal(t, "artifact-catalog", root.ID)

	var titles, ids []string
	for _, child := range root.Children {
		titles = append(titles, child.Title)
		ids = append(ids, child.ID)
	}
	assert.Equal(t, []string{"Claude", "Gemini", "Tags", "Dependencies"}, titles)
	assert.Equal(t, []string{"claude", "gemini", "tags", "dependencies"}, ids)

	html := string(overview.HTML)
	assert.Contains(t, html, `<h2 id="claude">Claude</h2>`)
	assert.Contains(t, html, `<a href="/references/claude/dashboard.tsx">Sales Dashboard</a>`)
	assert.Contains(t, html, "Revenue at a glance")
	assert.Contains(t, html, "chart.js, react")
	assert.Contains(t, html, "chart, report, state")
}

func TestDocument_EscapesExtractedText(t *testing.T) {
	doc := string(Document(sampleIndex()))

	assert.Contains(t, doc, `[Quarterly \*Sales\*]`)
	assert.Contains(t, doc, `(sales\_report.html)`)
	assert.Contains(t, doc, "2 artifacts, index version 1.0.0, last updated 2024-05-01 12:00 UTC.")

	overview, err := NewRenderer().Render(sampleIndex())
	require.NoError(t, err)
	assert.Contains(t, string(overview.HTML), "Quarterly *Sales*")
	assert.NotContains(t, string(overview.HTML), "<em>Sales</em>")
}

func TestDocument_SourcesKeepIndexOrder(t *testing.T) {
	idx := sampleIndex()
	idx.Files = append(idx.Files, catalog.FileMetadata{
		ID: "claude-profile", Filename: "profile.jsx", Path: "/references/claude/profile.jsx",
		Source: catalog.SourceClaude, Title: "Profile", Tags: []string{},
	})

	doc := string(Document(idx))
	claude := strings.Index(doc, "## Claude")
	gemini := strings.Index(doc, "## Gemini")
	dashboard := strings.Index(doc, "Sales Dashboard")
	profile := strings.Index(doc, "[Profile]")

	require.True(t, claude >= 0 && gemini >= 0)
	assert.Less(t, claude, dashboard)
	assert.Less(t, dashboard, profile)
	assert.Less(t, profile, gemini)
}

func TestRender_EmptyIndex(t *testing.T) {
	for _, idx := range []*catalog.MetadataIndex{nil, {Version: catalog.IndexVersion, Files: []catalog.FileMetadata{}}} {
		overview, err := NewRenderer().Render(idx)
		require.NoError(t, err)

		require.Len(t, overview.TOC, 1)
		assert.Empty(t, overview.TOC[0].Children)
		assert.Contains(t, string(overview.HTML), "No artifacts have been indexed yet.")
	}
}
