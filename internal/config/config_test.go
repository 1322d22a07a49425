package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nberrors "github.com/pythonot/nbrun/internal/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nbrun.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "auto_examples", cfg.SourceDir)
	assert.Equal(t, "notebooks", cfg.WorkDir)
	assert.Equal(t, "cache_nbrun", cfg.CachePath)
	assert.Equal(t, "*.ipynb", cfg.Pattern)
	assert.Equal(t, "jupyter", cfg.Jupyter)
	assert.Equal(t, 600, cfg.TimeoutSeconds)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	body := `
source_dir: gallery
work_dir: executed
timeout_seconds: 120
logging:
  level: debug
  format: json
history:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gallery", cfg.SourceDir)
	assert.Equal(t, "executed", cfg.WorkDir)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	// Untouched fields keep their defaults.
	assert.Equal(t, "cache_nbrun", cfg.CachePath)
	assert.Equal(t, "nbrun_history.db", cfg.History.Path)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("NBRUN_TEST_SOURCE", "expanded_gallery")
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_dir: ${NBRUN_TEST_SOURCE}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded_gallery", cfg.SourceDir)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_dir: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryConfig))
}

func TestValidateRejectsSharedSourceAndWorkDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_dir: same\nwork_dir: same\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryConfig))
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := Default()
	cfg.TimeoutSeconds = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryConfig))
}

func TestValidateRequiresEventURLWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Events.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryConfig))
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogLevelDebug.Level())
	assert.Equal(t, slog.LevelWarn, normalizeLogLevel("WARNING").Level())
	assert.Equal(t, slog.LevelInfo, normalizeLogLevel("bogus").Level())
	assert.Equal(t, LogFormatJSON, normalizeLogFormat(" JSON "))
	assert.Equal(t, LogFormatText, normalizeLogFormat(""))
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "10m0s", cfg.Timeout().String())
	assert.Equal(t, "500ms", cfg.Watch.Debounce().String())
	assert.Equal(t, "10m0s", cfg.Watch.RescanInterval().String())
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbrun.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, nberrors.IsCategory(err, nberrors.CategoryConfig))

	require.NoError(t, Init(path, true))
}
