// Package supervisor runs one external service through its lifecycle:
// install, start (port selection, spawn, readiness), running, and stop.
//
// A Supervisor owns at most one process at a time. Failures from the process
// package are passed through unchanged so callers can match them with
// errors.Is against process.ErrSpawn, process.ErrPrematureExit,
// process.ErrStartupTimeout and process.ErrStartAborted. An exit observed
// while Running moves the supervisor to Crashed; it is never restarted
// automatically.
package supervisor
