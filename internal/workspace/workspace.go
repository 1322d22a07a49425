// Package workspace manages the execution working directory that stale
// notebooks are copied into before they run.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	nberrors "github.com/pythonot/nbrun/internal/errors"
	"github.com/pythonot/nbrun/internal/logfields"
)

// Manager handles the persistent working directory. The directory survives
// between runs: executed notebooks stay in place so the documentation build
// can pick them up, and only stale ones get replaced.
type Manager struct {
	dir string
}

// NewManager creates a workspace manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Ensure creates the working directory if it does not exist yet.
func (m *Manager) Ensure() error {
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryCopy, "create working directory").
			WithContext("path", m.dir)
	}
	slog.Debug("Using working directory", logfields.Path(m.dir))
	return nil
}

// Path returns the working directory root.
func (m *Manager) Path() string {
	return m.dir
}

// CopyIn copies the file at src into the working directory under its base
// name, overwriting any previous copy, and returns the destination path. The
// source is only ever read.
func (m *Manager) CopyIn(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nberrors.Wrap(err, nberrors.CategoryCopy, "read source notebook").
			WithContext("source", src)
	}

	dst := filepath.Join(m.dir, filepath.Base(src))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", nberrors.Wrap(err, nberrors.CategoryCopy, "write working copy").
			WithContext("destination", dst)
	}

	slog.Debug("Copied notebook to working directory",
		logfields.Source(src),
		logfields.Destination(dst))
	return dst, nil
}
