package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/bull/artifact-catalog/internal/catalog"
)

// printer renders command output. On a terminal results are drawn as a
// styled table; otherwise as tab-separated columns for scripts.
type printer struct {
	w   io.Writer
	tty bool

	header  lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	dim     lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		tty:     isTTY(w),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#38bdf8")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#64748b")),
	}
}

// isTTY checks if output is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var resultColumns = []string{"ID", "TITLE", "SOURCE", "CREATED", "SIZE", "TAGS"}

func resultRow(f catalog.FileMetadata) []string {
	return []string{
		f.ID,
		f.Title,
		string(f.Source),
		f.CreatedAt.Format("2006-01-02"),
		fmt.Sprintf("%d", f.Size),
		strings.Join(f.Tags, ","),
	}
}

func (p *printer) results(files []catalog.FileMetadata) {
	if !p.tty {
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(resultColumns, "\t"))
		for _, f := range files {
			fmt.Fprintln(tw, strings.Join(resultRow(f), "\t"))
		}
		tw.Flush()
		return
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, resultRow(f))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.dim).
		Headers(resultColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.w, t.Render())
}
