// Package source abstracts where artifact files come from.
package source

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// File describes one artifact file without its content.
type File struct {
	Name      string
	Size      int64
	CreatedAt time.Time // zero when the source cannot tell
	UpdatedAt time.Time
}

// Source enumerates and reads artifact files in a directory.
//
// List returns catalog.ErrDirectoryMissing (wrapped) when dir does not exist.
// Stat and Read failures wrap catalog.ErrFileRead.
type Source interface {
	List(ctx context.Context, dir string, exts []string) ([]string, error)
	Stat(ctx context.Context, dir, name string) (File, error)
	Read(ctx context.Context, dir, name string) ([]byte, error)
}

// MatchExtension reports whether name ends with one of exts, ignoring case.
func MatchExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}
	return false
}
