package process

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Handle is a running (or exited) child process created by Spawn.
//
// A single goroutine calls cmd.Wait; every other observer learns about the
// exit through Exited. Handle methods are safe for concurrent use.
type Handle struct {
	name     string
	cmd      *exec.Cmd
	pid      int
	stdout   *stream
	stderr   *stream
	logFiles LogFiles
	log      *slog.Logger

	exited  chan struct{}
	mu      sync.Mutex
	status  ExitStatus
	waitErr error

	// signalFn delivers signals; replaced in tests to count deliveries.
	signalFn func(h *Handle, sig syscall.Signal) error
}

// Name returns the name given to Spawn.
func (h *Handle) Name() string { return h.name }

// PID returns the OS process id.
func (h *Handle) PID() int { return h.pid }

// Exited returns a channel closed once the process has exited and its
// output has been fully consumed.
func (h *Handle) Exited() <-chan struct{} { return h.exited }

// Alive reports whether the process has not exited yet.
func (h *Handle) Alive() bool {
	select {
	case <-h.exited:
		return false
	default:
		return true
	}
}

// ExitStatus returns how the process ended. ok is false while it is still
// running.
func (h *Handle) ExitStatus() (status ExitStatus, ok bool) {
	if h.Alive() {
		return ExitStatus{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, true
}

// Output returns the retained tail of stdout.
func (h *Handle) Output() string { return h.stdout.String() }

// ErrorOutput returns the retained tail of stderr.
func (h *Handle) ErrorOutput() string { return h.stderr.String() }

// LogFiles returns the paths output is teed to. Paths are empty when Spawn
// was called without a log directory. The files themselves stay owned by h.
func (h *Handle) LogFiles() LogFiles { return h.logFiles.paths() }

func (h *Handle) signal(sig syscall.Signal) error {
	return h.signalFn(h, sig)
}

// wait is the only caller of cmd.Wait.
func (h *Handle) wait() {
	err := h.cmd.Wait()
	status := statusFromState(h.cmd.ProcessState)

	h.mu.Lock()
	h.status = status
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		h.waitErr = err
	}
	h.mu.Unlock()

	// Close through a copy so h.logFiles is never written after Spawn.
	files := h.logFiles
	files.Close()
	h.log.Debug("process exited", "process", h.name, "pid", h.pid, "status", status.String())
	close(h.exited)
}

func statusFromState(ps *os.ProcessState) ExitStatus {
	if ps == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal()}
	}
	return ExitStatus{Code: ps.ExitCode()}
}
