package browserenv

import (
	"context"

	"github.com/giantswarm/browserenv/internal/core"
	"github.com/giantswarm/browserenv/internal/harclient"
	"github.com/giantswarm/browserenv/internal/orchestrator"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// Compile-time interface satisfaction check.
var _ Environment = (*Env)(nil)

// Public names for types defined by internal packages.
type (
	// State is a service lifecycle state.
	State = supervisor.State
	// Session describes one Start call: its ID and the started processes.
	Session = orchestrator.Session
	// StopReport lists every service's stop outcome.
	StopReport = orchestrator.StopReport
	// StopResult is one service's stop outcome.
	StopResult = orchestrator.StopResult
	// Addresses are the endpoints of a running Env.
	Addresses = core.Addresses
	// TestConfig configures one RunTest call.
	TestConfig = core.TestConfig
	// TestAddresses is handed to a TestFunc.
	TestAddresses = core.TestAddresses
	// TestFunc drives the browser during RunTest.
	TestFunc = core.TestFunc
	// TestResult holds what RunTest recorded.
	TestResult = core.TestResult
	// HAR is an HTTP Archive as returned by BrowserMob Proxy.
	HAR = harclient.HAR
)

// Service lifecycle states.
const (
	Uninstalled = supervisor.Uninstalled
	Installed   = supervisor.Installed
	Starting    = supervisor.Starting
	Running     = supervisor.Running
	Stopping    = supervisor.Stopping
	Stopped     = supervisor.Stopped
	Failed      = supervisor.Failed
	Crashed     = supervisor.Crashed
)

// Service names, as used in Status, StopReport and errors.
const (
	BrowserMobService = core.BrowserMobService
	SeleniumService   = core.SeleniumService
)

// Env runs BrowserMob Proxy and a Selenium server for end-to-end tests.
//
// The core.Env is stored as a named field rather than embedded so callers
// cannot reach internal methods.
type Env struct {
	env *core.Env
}

// New builds an Env with the given options. It performs no I/O; call
// Install or Start next.
//
// Panics if any option receives an invalid value. See the individual With*
// functions for constraints.
func New(opts ...Option) (*Env, error) {
	cfg := defaultEnvConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	env, err := core.NewEnv(cfg.toCoreConfig())
	if err != nil {
		return nil, err
	}
	return &Env{env: env}, nil
}

// Install downloads whatever is missing for both services.
func (e *Env) Install(ctx context.Context) error {
	return e.env.Install(ctx)
}

// Start installs if needed and starts both services in parallel.
func (e *Env) Start(ctx context.Context) (*Session, error) {
	return e.env.Start(ctx)
}

// Stop terminates both services and reports each outcome. The returned
// error joins the failures in the report.
func (e *Env) Stop(ctx context.Context) (StopReport, error) {
	return e.env.Stop(ctx)
}

// Addresses returns the endpoints of both services.
func (e *Env) Addresses() (Addresses, error) {
	return e.env.Addresses()
}

// Status maps each service name to its current state.
func (e *Env) Status() map[string]State {
	return e.env.Status()
}

// Session returns the most recent Start session, or nil.
func (e *Env) Session() *Session {
	return e.env.Session()
}

// RunTest opens a dedicated proxy port, starts recording a HAR named
// cfg.HAR, and calls fn with the proxy and automation server addresses.
// Afterwards it fetches the HAR and closes the port, even when fn failed.
//
// The returned error joins fn's error (first) with any proxy error. The
// result is non-nil whenever fn ran.
func (e *Env) RunTest(ctx context.Context, cfg TestConfig, fn TestFunc) (*TestResult, error) {
	return e.env.RunTest(ctx, cfg, fn)
}
