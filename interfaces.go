package browserenv

import "context"

// Environment is the set of Env operations test code depends on. Accept it
// instead of *Env to substitute a fake in unit tests.
//
// Callers follow this lifecycle:
//
//	New → Install (optional) → Start → Addresses/RunTest (repeatable) → Stop
//
// Stop is safe at any point, including after a failed Start.
type Environment interface {
	// Install downloads whatever is missing for both services. Start
	// installs too, so calling Install first only moves the download out
	// of the startup window.
	Install(ctx context.Context) error

	// Start starts both services in parallel and returns once both are
	// ready or one failed. On failure the returned *StartError names the
	// failure that caused it; the other service has been aborted.
	// Services that did start keep running until Stop.
	Start(ctx context.Context) (*Session, error)

	// Stop terminates both services in parallel, bounded by the stop
	// timeout and ctx, and reports each outcome.
	Stop(ctx context.Context) (StopReport, error)

	// Addresses returns the endpoints of both services. Returns
	// ErrNotStarted unless both are running.
	Addresses() (Addresses, error)

	// RunTest runs fn against a dedicated proxy port recording a HAR.
	RunTest(ctx context.Context, cfg TestConfig, fn TestFunc) (*TestResult, error)
}
