package supervisor

import "github.com/giantswarm/browserenv/internal/sentinel"

const (
	// ErrNotInstalled is returned by Start before a successful Install.
	ErrNotInstalled = sentinel.Error("service not installed")

	// ErrAlreadyStarted is returned by Start or Install while a process is
	// starting, running or stopping.
	ErrAlreadyStarted = sentinel.Error("service already started")

	// ErrCrashed is recorded as the supervisor's error when its process
	// exits while Running.
	ErrCrashed = sentinel.Error("service exited unexpectedly")
)
