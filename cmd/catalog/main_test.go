package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/artifact-catalog/internal/catalog"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "CATALOG_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}
	t.Setenv("PORT", "")
	t.Setenv("SERVER_MODE", "")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// seedReferences generates an index over two artifacts and returns its path.
func seedReferences(t *testing.T) string {
	t.Helper()
	clearEnv(t)
	refs := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(refs, "claude", "dashboard.tsx"),
		"import { useState } from 'react';\nexport default function Dashboard() { const [x] = useState(0); return x; }\n",
		base)
	writeFile(t, filepath.Join(refs, "gemini", "sales.html"),
		`<html><head><title>Sales Report</title><meta name="description" content="Quarterly sales"></head><body></body></html>`,
		base.Add(time.Hour))

	out, err := runCLI(t, "generate", "--references", refs)
	require.NoError(t, err)
	assert.Contains(t, out, "Generating index...")
	assert.Contains(t, out, "Index generated!")
	assert.Contains(t, out, "Files: 2")
	assert.Contains(t, out, "claude: 1")
	assert.Contains(t, out, "gemini: 1")

	index := filepath.Join(refs, "metadata.json")
	require.FileExists(t, index)
	return index
}

func TestGenerate_WritesIndex(t *testing.T) {
	index := seedReferences(t)

	data, err := os.ReadFile(index)
	require.NoError(t, err)
	var idx catalog.MetadataIndex
	require.NoError(t, json.Unmarshal(data, &idx))
	require.Len(t, idx.Files, 2)
	assert.Equal(t, "gemini-sales", idx.Files[0].ID)
	assert.Equal(t, "claude-dashboard", idx.Files[1].ID)
}

func TestGenerate_ReportsMissingGroups(t *testing.T) {
	clearEnv(t)
	refs := t.TempDir()
	writeFile(t, filepath.Join(refs, "claude", "a.tsx"), "export const A = 1;", time.Now())

	out, err := runCLI(t, "generate", "--references", refs)
	require.NoError(t, err)
	assert.Contains(t, out, "Missing source directories:")
	assert.Contains(t, out, "- gemini")
}

func TestSearch_JSON(t *testing.T) {
	index := seedReferences(t)

	out, err := runCLI(t, "search", "--index", index, "--json", "sales")
	require.NoError(t, err)

	var results []catalog.FileMetadata
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Sales Report", results[0].Title)
}

func TestSearch_FiltersAndPlainOutput(t *testing.T) {
	index := seedReferences(t)

	out, err := runCLI(t, "search", "--index", index, "--dep", "react")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "claude-dashboard")
	assert.Contains(t, lines[1], "2024-03-01")

	out, err = runCLI(t, "search", "--index", index, "--sort", "date", "--desc", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "gemini-sales")
	assert.NotContains(t, out, "claude-dashboard")
	assert.Contains(t, out, "showing 1 of 2 matches")

	out, err = runCLI(t, "search", "--index", index, "--since", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "No matching artifacts found.\n", out)
}

func TestSearch_InvalidInput(t *testing.T) {
	index := seedReferences(t)

	_, err := runCLI(t, "search", "--index", index, "--since", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--since")

	_, err = runCLI(t, "search", "--index", index, "--sort", "popularity")
	require.Error(t, err)
}

func TestShow(t *testing.T) {
	index := seedReferences(t)

	out, err := runCLI(t, "show", "--index", index, "claude-dashboard")
	require.NoError(t, err)
	var file catalog.FileMetadata
	require.NoError(t, json.Unmarshal([]byte(out), &file))
	assert.Equal(t, "dashboard.tsx", file.Filename)
	assert.Equal(t, []string{"react"}, file.Dependencies)

	out, err = runCLI(t, "show", "--index", index, "--filename", "sales.html", "--source", "gemini")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "gemini-sales"`)

	_, err = runCLI(t, "show", "--index", index, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `artifact "nope" not found`)

	_, err = runCLI(t, "show", "--index", index, "--filename", "sales.html")
	require.Error(t, err)
}

func TestTagsAndDeps(t *testing.T) {
	index := seedReferences(t)

	out, err := runCLI(t, "deps", "--index", index)
	require.NoError(t, err)
	assert.Equal(t, "react\n", out)

	out, err = runCLI(t, "tags", "--index", index, "--json")
	require.NoError(t, err)
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(out), &tags))
	assert.Contains(t, tags, "dashboard")
	assert.Contains(t, tags, "state")
}

func TestMissingIndex(t *testing.T) {
	clearEnv(t)
	_, err := runCLI(t, "tags", "--index", filepath.Join(t.TempDir(), "metadata.json"))
	require.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	out, err := runCLI(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+path+"\n", out)
	require.FileExists(t, path)

	_, err = runCLI(t, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCLI(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = runCLI(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "references_dir: references")
	assert.Contains(t, out, "output: references/metadata.json")
}
