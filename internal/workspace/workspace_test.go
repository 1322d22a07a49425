package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nberrors "github.com/pythonot/nbrun/internal/errors"
)

func TestEnsureCreatesNestedDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "notebooks")
	m := NewManager(dir)
	require.NoError(t, m.Ensure())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, m.Path())
}

func TestCopyInPlacesFileUnderBaseName(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "plot_ot.ipynb")
	require.NoError(t, os.WriteFile(src, []byte(`{"cells": []}`), 0o644))

	m := NewManager(t.TempDir())
	require.NoError(t, m.Ensure())

	dst, err := m.CopyIn(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Path(), "plot_ot.ipynb"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"cells": []}`, string(data))
}

func TestCopyInOverwritesPreviousCopy(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "plot_ot.ipynb")
	m := NewManager(t.TempDir())
	require.NoError(t, m.Ensure())

	require.NoError(t, os.WriteFile(src, []byte("first"), 0o644))
	_, err := m.CopyIn(src)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("second"), 0o644))
	dst, err := m.CopyIn(src)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestCopyInMissingSourceFails(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Ensure())

	_, err := m.CopyIn(filepath.Join(t.TempDir(), "gone.ipynb"))
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryCopy))
}
