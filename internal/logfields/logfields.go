package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyNotebook    = "notebook"
	KeyPath        = "path"
	KeyDigest      = "digest"
	KeyRunID       = "run_id"
	KeyDurationMS  = "duration_ms"
	KeyCount       = "count"
	KeySource      = "source"
	KeyDestination = "destination"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Notebook(name string) slog.Attr  { return slog.String(KeyNotebook, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Digest(d string) slog.Attr       { return slog.String(KeyDigest, d) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Destination(d string) slog.Attr  { return slog.String(KeyDestination, d) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
