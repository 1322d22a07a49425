package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/pythonot/nbrun/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"nbrun.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Re-execute notebooks whose content changed since the last run"`
	Status  StatusCmd  `cmd:"" help:"Show which notebooks are stale without executing anything"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Keep the gallery up to date by watching for notebook changes"`
	History HistoryCmd `cmd:"" help:"Show recorded rebuild passes from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file and re-applies the logging section,
// which flag parsing could not know about yet. --verbose always wins.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg, root.Verbose)
	return cfg, nil
}

func configureLogging(cfg *config.Config, verbose bool) {
	level := cfg.Logging.Level.Level()
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// applyOverrides lets path flags take precedence over the configuration file.
// Priority: CLI flag > config file > built-in default.
func applyOverrides(cfg *config.Config, source, workDir, cachePath string) error {
	if source != "" {
		cfg.SourceDir = source
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	if cachePath != "" {
		cfg.CachePath = cachePath
	}
	return cfg.Validate()
}
