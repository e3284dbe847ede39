package browserenv

import (
	"log/slog"

	"github.com/giantswarm/browserenv/internal/core"
)

// SetLogger replaces the package-level logger used by browserenv when no
// logger is passed through WithLogger. The provided logger should already
// carry any desired attributes.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute, re-derived on the next use. Call SetLogger(nil) after
// slog.SetDefault() to pick up the change.
//
// SetLogger is safe to call concurrently with other browserenv operations,
// but an Env captures its logger in New. For a strict happens-before
// guarantee call it before New, e.g. in TestMain before m.Run.
//
// Example:
//
//	browserenv.SetLogger(myLogger.With("component", "browserenv"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
