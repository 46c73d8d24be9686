package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyScanID     = "scan_id"
	KeyRoot       = "root"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyRefKind    = "ref_kind"
	KeyLine       = "line"
	KeyDepth      = "depth"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFiles      = "files"
	KeyRefs       = "refs"
	KeyBroken     = "broken"
	KeyRepo       = "repository"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ScanID(id string) slog.Attr      { return slog.String(KeyScanID, id) }
func Root(dir string) slog.Attr       { return slog.String(KeyRoot, dir) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func RefKind(k string) slog.Attr      { return slog.String(KeyRefKind, k) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Depth(d int) slog.Attr           { return slog.Int(KeyDepth, d) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Refs(n int) slog.Attr            { return slog.Int(KeyRefs, n) }
func Broken(n int) slog.Attr          { return slog.Int(KeyBroken, n) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
