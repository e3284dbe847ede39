package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/giantswarm/browserenv/internal/install"
	"github.com/giantswarm/browserenv/internal/process"
)

// Supervisor drives one service. All methods are safe for concurrent use.
type Supervisor struct {
	cfg Config
	log *slog.Logger

	mu            sync.Mutex
	state         State
	installed     bool
	handle        *process.Handle
	port          int
	err           error
	crashed       chan struct{}
	cancelStart   context.CancelFunc
	startDone     chan struct{}
	stopRequested bool
}

// New validates cfg and returns a supervisor in state Uninstalled.
func New(cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s service config: %w", cfg.Name, err)
	}
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg:     cfg,
		log:     cfg.Logger.With("service", cfg.Name),
		state:   Uninstalled,
		crashed: make(chan struct{}),
	}, nil
}

// Name returns the service name.
func (s *Supervisor) Name() string { return s.cfg.Name }

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the port chosen by the last start, or 0 when none is held.
func (s *Supervisor) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Addr returns host:port of the running service, or "" when no port is
// held.
func (s *Supervisor) Addr() string {
	port := s.Port()
	if port == 0 {
		return ""
	}
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
}

// Handle returns the current process, or nil.
func (s *Supervisor) Handle() *process.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Err returns the error that caused the last Failed or Crashed transition.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Crashed returns a channel closed when the process of the current run
// exits while Running.
func (s *Supervisor) Crashed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crashed
}

// setStateLocked must be called with s.mu held.
func (s *Supervisor) setStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.log.Debug("state change", "from", from.String(), "to", to.String())
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(s.cfg.Name, from, to)
	}
}

// releasePortLocked must be called with s.mu held.
func (s *Supervisor) releasePortLocked() {
	if s.port != 0 {
		s.cfg.Ports.Release(s.port)
		s.port = 0
	}
}

// Install runs the installer. On failure the state becomes Failed and the
// error matches install.ErrInstall.
func (s *Supervisor) Install(ctx context.Context) error {
	s.mu.Lock()
	if s.state.active() {
		s.mu.Unlock()
		return fmt.Errorf("install %s: %w", s.cfg.Name, ErrAlreadyStarted)
	}
	s.mu.Unlock()

	var err error
	if s.cfg.Installer != nil {
		err = s.cfg.Installer.Install(ctx)
		if err != nil && !errors.Is(err, install.ErrInstall) {
			err = &install.InstallError{Name: s.cfg.Name, Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.active() {
		// A concurrent Start won; leave its state alone.
		return err
	}
	if err != nil {
		s.err = err
		s.setStateLocked(Failed)
		return err
	}
	s.installed = true
	s.setStateLocked(Installed)
	return nil
}

// Start launches the service and blocks until it is ready, fails, or ctx is
// done. On success the state is Running and the handle is returned.
//
// Errors match process.ErrSpawn, process.ErrPrematureExit,
// process.ErrStartupTimeout or process.ErrStartAborted, or ErrNotInstalled
// and ErrAlreadyStarted when Start is not allowed.
func (s *Supervisor) Start(ctx context.Context) (*process.Handle, error) {
	s.mu.Lock()
	if s.state.active() {
		s.mu.Unlock()
		return nil, fmt.Errorf("start %s: %w", s.cfg.Name, ErrAlreadyStarted)
	}
	if !s.installed {
		s.mu.Unlock()
		return nil, fmt.Errorf("start %s: %w", s.cfg.Name, ErrNotInstalled)
	}
	startCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelStart = cancel
	s.startDone = done
	s.stopRequested = false
	s.err = nil
	s.handle = nil
	s.crashed = make(chan struct{})
	s.setStateLocked(Starting)
	s.mu.Unlock()

	defer close(done)
	defer cancel()

	began := time.Now()
	h, port, err := s.launch(startCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelStart = nil
	s.port = port
	if err != nil {
		s.releasePortLocked()
		s.err = err
		if s.stopRequested {
			s.setStateLocked(Stopped)
		} else {
			s.setStateLocked(Failed)
		}
		s.log.Info("start failed", "error", err, "elapsed", time.Since(began))
		return nil, err
	}
	s.handle = h
	s.setStateLocked(Running)
	s.log.Info("started", "pid", h.PID(), "port", port, "elapsed", time.Since(began))
	go s.watchCrash(h, s.crashed)
	return h, nil
}

// launch resolves the port, spawns the process and waits for readiness.
// The returned port is reserved even on failure so the caller can release it.
func (s *Supervisor) launch(ctx context.Context) (*process.Handle, int, error) {
	port, err := s.cfg.Ports.FindFreePort(s.cfg.Port)
	if err != nil {
		return nil, 0, &process.SpawnError{
			Name: s.cfg.Name, Command: s.cfg.Command, Dir: s.cfg.Dir,
			Err: fmt.Errorf("find free port: %w", err),
		}
	}

	h, err := process.Spawn(process.SpawnConfig{
		Name:        s.cfg.Name,
		Command:     s.cfg.Command,
		Args:        s.cfg.Args(port),
		Dir:         s.cfg.Dir,
		Env:         s.cfg.Env,
		LogDir:      s.cfg.LogDir,
		Logger:      s.log,
		MergeStderr: s.cfg.MergeStderr,
	})
	if err != nil {
		return nil, port, err
	}

	term := s.terminateConfig()
	began := time.Now()
	if err := process.AwaitReady(ctx, h, process.WatchConfig{
		Pattern:   s.cfg.ReadyPattern,
		Timeout:   s.cfg.StartTimeout,
		Terminate: term,
	}); err != nil {
		return nil, port, err
	}

	if s.cfg.ConfirmListening {
		addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
		remaining := max(s.cfg.StartTimeout-time.Since(began), time.Second)
		if err := process.WaitListening(ctx, h, addr, remaining); err != nil {
			return nil, port, s.listenFailure(ctx, h, term, remaining, err)
		}
	}
	return h, port, nil
}

// listenFailure terminates h after a failed listening check and classifies
// the failure like AwaitReady would.
func (s *Supervisor) listenFailure(ctx context.Context, h *process.Handle, term process.TerminateConfig, timeout time.Duration, err error) error {
	if errors.Is(err, process.ErrPrematureExit) {
		return err
	}
	status, termErr := process.Terminate(h, term)
	if ctx.Err() != nil {
		return &process.StartAbortedError{
			Name: s.cfg.Name, PID: h.PID(), Cause: context.Cause(ctx),
			Status: status, TermErr: termErr,
		}
	}
	return &process.StartupTimeoutError{
		Name: s.cfg.Name, PID: h.PID(), Pattern: s.cfg.ReadyPattern, Timeout: timeout,
		Output: h.Output(), Stderr: h.ErrorOutput(), Status: status, TermErr: termErr,
	}
}

func (s *Supervisor) terminateConfig() process.TerminateConfig {
	return process.TerminateConfig{
		GracefulTimeout: s.cfg.GracefulTimeout,
		KillTimeout:     s.cfg.KillTimeout,
	}
}

// watchCrash moves a Running supervisor to Crashed when h exits on its own.
func (s *Supervisor) watchCrash(h *process.Handle, crashed chan struct{}) {
	<-h.Exited()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != h || s.state != Running {
		return
	}
	status, _ := h.ExitStatus()
	s.err = fmt.Errorf("%s (pid %d) %s: %w", s.cfg.Name, h.PID(), status, ErrCrashed)
	s.releasePortLocked()
	s.setStateLocked(Crashed)
	s.log.Warn("service exited unexpectedly", "pid", h.PID(), "status", status.String())
	close(crashed)
}

// Stop stops the service from any state. It is a no-op when nothing runs.
// A start in progress is cancelled and awaited. When the process survives
// termination the *process.UnresponsiveError is returned and the state
// stays Stopping; calling Stop again retries.
func (s *Supervisor) Stop() error {
	for {
		s.mu.Lock()
		switch s.state {
		case Starting:
			s.stopRequested = true
			cancel, done := s.cancelStart, s.startDone
			s.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			<-done
			continue

		case Running, Crashed, Stopping:
			h := s.handle
			s.setStateLocked(Stopping)
			s.mu.Unlock()
			return s.terminate(h)

		default:
			s.mu.Unlock()
			return nil
		}
	}
}

func (s *Supervisor) terminate(h *process.Handle) error {
	var (
		status process.ExitStatus
		err    error
	)
	if h != nil {
		status, err = process.Terminate(h, s.terminateConfig())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		s.log.Error("stop failed", "error", err)
		return err
	}
	s.handle = nil
	s.releasePortLocked()
	s.setStateLocked(Stopped)
	s.log.Info("stopped", "status", status.String())
	return nil
}
