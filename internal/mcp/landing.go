package mcp

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/bull/artifact-catalog/internal/markdown"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Artifact Catalog MCP Server</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; justify-content: center; padding: 3rem 0; }
  .card { max-width: 760px; width: 90%; background: #1e293b; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  h2 { font-size: 1.2rem; margin: 1.5rem 0 0.5rem; color: #f8fafc; }
  p, li { line-height: 1.6; }
  ul { padding-left: 1.25rem; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  a { color: #38bdf8; text-decoration: none; }
  a:hover { text-decoration: underline; }
  .toc a { margin-right: 1rem; }
  .status { display: inline-block; width: 8px; height: 8px; background: #22c55e; border-radius: 50%; margin-right: 0.5rem; }
  .status.down { background: #ef4444; }
  .endpoint { font-family: "SF Mono", monospace; font-size: 0.9rem; color: #a5b4fc; }
</style>
</head>
<body>
<div class="card">
  <h1>Artifact Catalog MCP Server</h1>
  <p class="subtitle">Search and look up generated React components and HTML pages via the Model Context Protocol.</p>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="status"></span><a href="/mcp" class="endpoint">/mcp</a>: MCP Streamable HTTP</p>
    <p><span class="status"></span><a href="/health" class="endpoint">/health</a>: Health check</p>
    <p><span class="status{{if .Error}} down{{end}}"></span><a href="/references/metadata.json" class="endpoint">/references/metadata.json</a>: Metadata index</p>
  </div>

  {{if .Error}}
  <div class="section">
    <div class="section-title">Catalog</div>
    <p>The index is unavailable: {{.Error}}</p>
  </div>
  {{else}}
  <div class="section toc">
    <div class="section-title">Contents</div>
    {{range .TOC}}{{range .Children}}<a href="#{{.ID}}">{{.Title}}</a>{{end}}{{end}}
  </div>
  <div class="section overview">
    {{.Overview}}
  </div>
  {{end}}
</div>
</body>
</html>`))

type landingData struct {
	Error    string
	TOC      []markdown.Entry
	Overview template.HTML
}

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
// The page embeds the catalog overview of the currently loaded index.
func NewLandingHandler(index IndexLoader, renderer *markdown.Renderer, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		var data landingData
		idx, err := index.Load(r.Context(), false)
		if err != nil {
			data.Error = err.Error()
		} else if overview, err := renderer.Render(idx); err != nil {
			logger.Error("failed to render overview", "error", err)
			data.Error = "overview could not be rendered"
		} else {
			data.TOC = overview.TOC
			// goldmark escapes raw HTML in the source unless WithUnsafe is set.
			data.Overview = template.HTML(overview.HTML)
		}

		var buf bytes.Buffer
		if err := landingTemplate.Execute(&buf, data); err != nil {
			logger.Error("failed to execute landing template", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
