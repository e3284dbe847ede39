package browserenv

import (
	"github.com/giantswarm/browserenv/internal/core"
	"github.com/giantswarm/browserenv/internal/install"
	"github.com/giantswarm/browserenv/internal/orchestrator"
	"github.com/giantswarm/browserenv/internal/process"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrSpawn is returned when a service's command could not be executed.
	ErrSpawn = process.ErrSpawn

	// ErrPrematureExit is returned when a service exits before logging its
	// readiness banner. The exit status and output tail are in the
	// *PrematureExitError.
	ErrPrematureExit = process.ErrPrematureExit

	// ErrStartupTimeout is returned when a service does not become ready
	// within its start timeout. The process has been terminated.
	ErrStartupTimeout = process.ErrStartupTimeout

	// ErrUnresponsive is returned when a process survives SIGKILL for the
	// whole kill timeout.
	ErrUnresponsive = process.ErrUnresponsive

	// ErrStartAborted is returned by a service whose start was cancelled,
	// either by the caller's context or because a sibling service failed.
	ErrStartAborted = process.ErrStartAborted

	// ErrInstall is returned when downloading or unpacking a service fails.
	ErrInstall = install.ErrInstall

	// ErrNotInstalled is returned by Start when a service has not been
	// installed and could not be.
	ErrNotInstalled = supervisor.ErrNotInstalled

	// ErrAlreadyStarted is returned by Start while services are running.
	ErrAlreadyStarted = supervisor.ErrAlreadyStarted

	// ErrCrashed reports a service that exited on its own after becoming
	// ready.
	ErrCrashed = supervisor.ErrCrashed

	// ErrStopTimedOut marks a service that was still stopping when Stop's
	// deadline passed.
	ErrStopTimedOut = orchestrator.ErrStopTimedOut

	// ErrNotStarted is returned by Addresses and RunTest before both
	// services are running.
	ErrNotStarted = core.ErrNotStarted
)

// Typed errors carrying failure context, for use with errors.As.
type (
	SpawnError          = process.SpawnError
	PrematureExitError  = process.PrematureExitError
	StartupTimeoutError = process.StartupTimeoutError
	StartAbortedError   = process.StartAbortedError
	UnresponsiveError   = process.UnresponsiveError
	InstallError        = install.InstallError
	ServiceError        = orchestrator.ServiceError
	StartError          = orchestrator.StartError
)
