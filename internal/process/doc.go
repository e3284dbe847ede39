// Package process spawns, watches and terminates the external processes that
// browserenv supervises.
//
// Spawn starts a command and returns a Handle whose stdout and stderr are fed
// into in-process writers: they keep a bounded tail for diagnostics, can tee
// to log files, and fan chunks out to subscribers. AwaitReady subscribes to
// stdout and settles exactly once: the readiness pattern matched the
// accumulated output, the process exited, the startup timeout elapsed, or the
// caller cancelled. Terminate stops a process with SIGTERM, escalates to
// SIGKILL after a grace period, and reports an UnresponsiveError when even
// that does not reap it. WaitListening confirms a port accepts connections.
package process
