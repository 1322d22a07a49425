// Package config loads and validates the nbrun configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	nberrors "github.com/pythonot/nbrun/internal/errors"
)

// Config describes one notebook gallery and how to rebuild it. All paths are
// interpreted relative to the process working directory unless absolute.
type Config struct {
	// SourceDir holds the generated gallery notebooks. It is never written to.
	SourceDir string `yaml:"source_dir"`
	// WorkDir is where stale notebooks are copied and executed in place.
	WorkDir string `yaml:"work_dir"`
	// CachePath is the JSON digest cache location.
	CachePath string `yaml:"cache_path"`
	// Pattern selects notebook files inside SourceDir (filepath.Match syntax).
	Pattern string `yaml:"pattern"`
	// Jupyter is the executable used to run notebooks.
	Jupyter string `yaml:"jupyter"`
	// TimeoutSeconds is forwarded to the execute preprocessor as its per-cell
	// timeout. The run itself has no overall deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
}

// WatchConfig controls watch mode behavior.
type WatchConfig struct {
	// DebounceMS coalesces bursts of file events before a rebuild pass starts.
	DebounceMS int `yaml:"debounce_ms"`
	// RescanMinutes triggers a full pass periodically even without file
	// events. Zero disables the periodic rescan.
	RescanMinutes int `yaml:"rescan_minutes"`
	// MetricsAddr exposes Prometheus metrics on this listen address when set,
	// e.g. ":9188".
	MetricsAddr string `yaml:"metrics_addr"`
}

// HistoryConfig controls the optional SQLite run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig controls optional NATS publication of rebuild events.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns the configuration used when no file is present. The zero
// setup matches a sphinx-gallery layout: notebooks generated under
// auto_examples, executed copies under notebooks.
func Default() *Config {
	return &Config{
		SourceDir:      "auto_examples",
		WorkDir:        "notebooks",
		CachePath:      "cache_nbrun",
		Pattern:        "*.ipynb",
		Jupyter:        "jupyter",
		TimeoutSeconds: 600,
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Watch: WatchConfig{
			DebounceMS:    500,
			RescanMinutes: 10,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "nbrun_history.db",
		},
		Events: EventsConfig{
			Enabled: false,
			Subject: "nbrun.rebuilds",
		},
	}
}

// Load reads the configuration file at configPath. A missing file is not an
// error: the defaults describe a complete setup. Environment variables in the
// file body (${VAR} or $VAR) are expanded before parsing.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, nberrors.Wrap(err, nberrors.CategoryConfig, "read configuration file").
			WithContext("path", configPath)
	}

	expandedData := os.ExpandEnv(string(data))

	config := Default()
	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, nberrors.Wrap(err, nberrors.CategoryConfig, "parse configuration file").
			WithContext("path", configPath)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills fields an explicit file may have zeroed out. A YAML
// document cannot distinguish "absent" from "empty", so empty means default.
func (c *Config) applyDefaults() {
	d := Default()
	if c.SourceDir == "" {
		c.SourceDir = d.SourceDir
	}
	if c.WorkDir == "" {
		c.WorkDir = d.WorkDir
	}
	if c.CachePath == "" {
		c.CachePath = d.CachePath
	}
	if c.Pattern == "" {
		c.Pattern = d.Pattern
	}
	if c.Jupyter == "" {
		c.Jupyter = d.Jupyter
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = d.Watch.DebounceMS
	}
	if c.History.Path == "" {
		c.History.Path = d.History.Path
	}
	if c.Events.Subject == "" {
		c.Events.Subject = d.Events.Subject
	}
	c.Logging.Level = normalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = normalizeLogFormat(string(c.Logging.Format))
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.SourceDir == c.WorkDir {
		return nberrors.New(nberrors.CategoryConfig,
			"source_dir and work_dir must differ: executing in place would overwrite gallery sources")
	}
	if c.TimeoutSeconds < 0 {
		return nberrors.New(nberrors.CategoryConfig, "timeout_seconds must not be negative")
	}
	if c.Watch.DebounceMS < 0 {
		return nberrors.New(nberrors.CategoryConfig, "watch.debounce_ms must not be negative")
	}
	if c.Watch.RescanMinutes < 0 {
		return nberrors.New(nberrors.CategoryConfig, "watch.rescan_minutes must not be negative")
	}
	if c.History.Enabled && c.History.Path == "" {
		return nberrors.New(nberrors.CategoryConfig, "history.path is required when history is enabled")
	}
	if c.Events.Enabled {
		if c.Events.URL == "" {
			return nberrors.New(nberrors.CategoryConfig, "events.url is required when events are enabled")
		}
		if c.Events.Subject == "" {
			return nberrors.New(nberrors.CategoryConfig, "events.subject is required when events are enabled")
		}
	}
	return nil
}

// Timeout returns the execute preprocessor timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Debounce returns the watch debounce window as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// RescanInterval returns the periodic rescan interval, zero when disabled.
func (w WatchConfig) RescanInterval() time.Duration {
	return time.Duration(w.RescanMinutes) * time.Minute
}

// Init writes a configuration file populated with the defaults. Refuses to
// overwrite an existing file unless force is set.
func Init(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return nberrors.New(nberrors.CategoryConfig,
				fmt.Sprintf("configuration file %s already exists (use --force to overwrite)", configPath))
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return nberrors.Wrap(err, nberrors.CategoryConfig, "marshal default configuration")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryConfig, "write configuration file").
			WithContext("path", configPath)
	}
	return nil
}
