package core

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger. A nil value means none was set and
// Logger falls back to a cached logger derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches slog.Default() with the component attribute so it is
// not rebuilt on every call. SetLogger(nil) clears it, so a later
// slog.SetDefault is picked up on the next Logger call.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the package-level logger. Safe for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "browserenv")
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// SetLogger replaces the package-level logger. nil restores the default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
