//go:build unix

package process

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	sigTerm = unix.SIGTERM
	sigKill = unix.SIGKILL
)

// signalProcess signals the child's process group, falling back to the
// child alone if the group is already gone.
func signalProcess(h *Handle, sig syscall.Signal) error {
	err := unix.Kill(-h.pid, sig)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.ESRCH) {
		h.log.Debug("group signal failed", "process", h.name, "pid", h.pid, "signal", sig.String(), "error", err)
	}
	return h.cmd.Process.Signal(sig)
}
