//go:build !unix

package process

import "syscall"

const (
	sigTerm = syscall.SIGTERM
	sigKill = syscall.SIGKILL
)

// signalProcess kills the process outright; there is no graceful signal.
func signalProcess(h *Handle, _ syscall.Signal) error {
	return h.cmd.Process.Kill()
}
