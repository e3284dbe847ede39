package process

import (
	"fmt"
	"regexp"
	"syscall"
	"time"

	"github.com/giantswarm/browserenv/internal/sentinel"
)

// Failure kinds. Every error returned by this package matches at most one
// of them with errors.Is.
const (
	// ErrSpawn is matched by errors from Spawn when the OS could not create
	// the process.
	ErrSpawn = sentinel.Error("process could not be spawned")

	// ErrPrematureExit is matched when a process exits before printing its
	// readiness banner.
	ErrPrematureExit = sentinel.Error("process exited before becoming ready")

	// ErrStartupTimeout is matched when the readiness pattern did not appear
	// within the startup timeout.
	ErrStartupTimeout = sentinel.Error("process startup timed out")

	// ErrUnresponsive is matched when a process survives SIGKILL for the
	// whole kill timeout.
	ErrUnresponsive = sentinel.Error("process unresponsive to termination")

	// ErrStartAborted is matched when the caller cancelled a readiness wait.
	ErrStartAborted = sentinel.Error("process start aborted")
)

// maxOutputInError bounds how much captured output is rendered by Error().
// The full text stays available in the error's fields.
const maxOutputInError = 512

// ExitStatus describes how a process ended: either a numeric exit code or
// the signal that terminated it.
type ExitStatus struct {
	Code   int            // -1 when the process was terminated by a signal
	Signal syscall.Signal // zero unless the process was terminated by a signal
}

// Signaled reports whether the process was terminated by a signal.
func (s ExitStatus) Signaled() bool {
	return s.Signal != 0
}

// String renders the status as "exit code N" or "signal: NAME".
func (s ExitStatus) String() string {
	if s.Signaled() {
		return "signal: " + s.Signal.String()
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// SpawnError reports that the OS refused to create a process.
type SpawnError struct {
	Name    string
	Command string
	Dir     string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: run %q in %q: %v", e.Name, e.Command, e.Dir, e.Err)
}

// Is matches ErrSpawn.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

func (e *SpawnError) Unwrap() error { return e.Err }

// PrematureExitError reports a process that exited before its readiness
// pattern matched.
type PrematureExitError struct {
	Name    string
	PID     int
	Status  ExitStatus
	Pattern *regexp.Regexp
	Output  string // everything read from stdout during the wait
	Stderr  string // stderr tail
}

func (e *PrematureExitError) Error() string {
	return fmt.Sprintf("%s (pid %d) exited before matching %q: %s; output: %q; stderr: %q",
		e.Name, e.PID, e.Pattern, e.Status, clip(e.Output), clip(e.Stderr))
}

// Is matches ErrPrematureExit.
func (e *PrematureExitError) Is(target error) bool { return target == ErrPrematureExit }

// StartupTimeoutError reports a process whose readiness pattern did not
// match in time. The process has been terminated; Status and TermErr hold
// the terminator's outcome.
type StartupTimeoutError struct {
	Name    string
	PID     int
	Pattern *regexp.Regexp
	Timeout time.Duration
	Output  string
	Stderr  string
	Status  ExitStatus // valid when TermErr is nil
	TermErr error      // non-nil when termination itself failed
}

func (e *StartupTimeoutError) Error() string {
	outcome := "terminated with " + e.Status.String()
	if e.TermErr != nil {
		outcome = "termination failed: " + e.TermErr.Error()
	}
	return fmt.Sprintf("%s (pid %d) did not match %q within %s; %s; output: %q",
		e.Name, e.PID, e.Pattern, e.Timeout, outcome, clip(e.Output))
}

// Is matches ErrStartupTimeout.
func (e *StartupTimeoutError) Is(target error) bool { return target == ErrStartupTimeout }

func (e *StartupTimeoutError) Unwrap() error { return e.TermErr }

// StartAbortedError reports a readiness wait cancelled through its context.
// The process has been terminated.
type StartAbortedError struct {
	Name    string
	PID     int
	Cause   error
	Status  ExitStatus
	TermErr error
}

func (e *StartAbortedError) Error() string {
	if e.TermErr != nil {
		return fmt.Sprintf("%s (pid %d): start aborted: %v; termination failed: %v", e.Name, e.PID, e.Cause, e.TermErr)
	}
	return fmt.Sprintf("%s (pid %d): start aborted: %v; terminated with %s", e.Name, e.PID, e.Cause, e.Status)
}

// Is matches ErrStartAborted.
func (e *StartAbortedError) Is(target error) bool { return target == ErrStartAborted }

func (e *StartAbortedError) Unwrap() []error {
	errs := []error{e.Cause}
	if e.TermErr != nil {
		errs = append(errs, e.TermErr)
	}
	return errs
}

// UnresponsiveError reports a process still alive after SIGKILL and the
// kill timeout.
type UnresponsiveError struct {
	Name    string
	PID     int
	Elapsed time.Duration
}

func (e *UnresponsiveError) Error() string {
	return fmt.Sprintf("%s (pid %d) still running %s after termination began",
		e.Name, e.PID, e.Elapsed.Round(time.Millisecond))
}

// Is matches ErrUnresponsive.
func (e *UnresponsiveError) Is(target error) bool { return target == ErrUnresponsive }

// clip keeps the last maxOutputInError bytes of s.
func clip(s string) string {
	if len(s) <= maxOutputInError {
		return s
	}
	return "..." + s[len(s)-maxOutputInError:]
}
