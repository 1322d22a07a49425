// Package gallery discovers the notebooks that make up a documentation
// gallery and extracts display metadata from them.
package gallery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pythonot/nbrun/internal/logfields"
)

// Notebook is one discovered gallery notebook. Name is the bare filename and
// doubles as the cache key; Path locates the file inside the source directory.
type Notebook struct {
	Name string
	Path string
	Size int64
}

// Discover lists the notebooks directly inside sourceDir that match pattern.
// Subdirectories are not descended into: gallery generators emit a flat
// directory per section and each section is tracked separately. The result is
// sorted by filename, which fixes the rebuild order.
func Discover(sourceDir, pattern string) ([]Notebook, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("list notebooks in %s: %w", sourceDir, err)
	}

	var notebooks []Notebook
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid notebook pattern %q: %w", pattern, err)
		}
		if !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		notebooks = append(notebooks, Notebook{
			Name: entry.Name(),
			Path: filepath.Join(sourceDir, entry.Name()),
			Size: info.Size(),
		})
	}

	slog.Debug("Discovered gallery notebooks",
		logfields.Path(sourceDir),
		logfields.Count(len(notebooks)))
	return notebooks, nil
}
