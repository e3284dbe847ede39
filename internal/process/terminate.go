package process

import (
	"time"
)

// Default termination timeouts.
const (
	DefaultGracefulTimeout = 10 * time.Second
	DefaultKillTimeout     = 5 * time.Second
)

// TerminateConfig bounds the two phases of Terminate. Zero values use the
// package defaults.
type TerminateConfig struct {
	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration
	// KillTimeout is how long to wait after SIGKILL before giving up.
	KillTimeout time.Duration
}

func (c TerminateConfig) withDefaults() TerminateConfig {
	if c.GracefulTimeout <= 0 {
		c.GracefulTimeout = DefaultGracefulTimeout
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = DefaultKillTimeout
	}
	return c
}

// Terminate stops h and returns its exit status.
//
// A process that already exited is not signalled. Otherwise it receives
// SIGTERM; if it is still alive after GracefulTimeout it receives SIGKILL;
// if it is still alive KillTimeout later, Terminate returns an
// *UnresponsiveError. Signal delivery errors are ignored because the exit
// channel is the source of truth.
func Terminate(h *Handle, cfg TerminateConfig) (ExitStatus, error) {
	cfg = cfg.withDefaults()
	if status, ok := h.ExitStatus(); ok {
		return status, nil
	}

	began := time.Now()
	_ = h.signal(sigTerm)
	if waitExited(h, cfg.GracefulTimeout) {
		status, _ := h.ExitStatus()
		return status, nil
	}

	h.log.Warn("process ignored SIGTERM; sending SIGKILL",
		"process", h.name, "pid", h.pid, "grace", cfg.GracefulTimeout)
	_ = h.signal(sigKill)
	if waitExited(h, cfg.KillTimeout) {
		status, _ := h.ExitStatus()
		return status, nil
	}

	err := &UnresponsiveError{Name: h.name, PID: h.pid, Elapsed: time.Since(began)}
	h.log.Error("process survived SIGKILL; it may be orphaned", "process", h.name, "pid", h.pid, "error", err)
	return ExitStatus{}, err
}

// waitExited reports whether h exits within d.
func waitExited(h *Handle, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-h.exited:
		return true
	case <-t.C:
		return false
	}
}
