package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/browserenv/internal/process"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// Service is one supervised service. *supervisor.Supervisor implements it.
type Service interface {
	Name() string
	Install(ctx context.Context) error
	Start(ctx context.Context) (*process.Handle, error)
	Stop() error
	State() supervisor.State
	Addr() string
}

// Session describes one Start call.
type Session struct {
	ID      string
	Started time.Time
	Handles map[string]*process.Handle
}

// StopResult is one service's stop outcome. Err is nil on success.
type StopResult struct {
	Service string
	State   supervisor.State
	Err     error
}

// StopReport lists the outcome of every service, in registration order.
type StopReport []StopResult

// Failed returns the results with a non-nil Err.
func (r StopReport) Failed() StopReport {
	var out StopReport
	for _, res := range r {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Orchestrator runs a fixed set of services.
type Orchestrator struct {
	services []Service
	log      *slog.Logger

	mu      sync.Mutex
	session *Session
}

// New returns an orchestrator for services. Names must be unique and
// non-empty.
func New(logger *slog.Logger, services ...Service) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(services))
	var errs []error
	for _, s := range services {
		name := s.Name()
		if name == "" {
			errs = append(errs, errors.New("service name must not be empty"))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("duplicate service name %q", name))
		}
		seen[name] = struct{}{}
	}
	if len(services) == 0 {
		errs = append(errs, errors.New("at least one service is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Orchestrator{services: services, log: logger}, nil
}

// Services returns the registered services.
func (o *Orchestrator) Services() []Service {
	return append([]Service(nil), o.services...)
}

// Session returns the current session, or nil before Start.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Status maps each service name to its state.
func (o *Orchestrator) Status() map[string]supervisor.State {
	out := make(map[string]supervisor.State, len(o.services))
	for _, s := range o.services {
		out[s.Name()] = s.State()
	}
	return out
}

// Install installs every service concurrently. Unlike Start, one failure
// does not cancel the others; the returned error joins all failures.
func (o *Orchestrator) Install(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, svc := range o.services {
		g.Go(func() error {
			if err := svc.Install(ctx); err != nil {
				mu.Lock()
				errs = append(errs, &ServiceError{Service: svc.Name(), Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Start installs and starts every service concurrently and waits for all
// of them to settle. On failure it returns a *StartError; services that
// started are not stopped.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:      uuid.NewString(),
		Started: time.Now(),
		Handles: make(map[string]*process.Handle, len(o.services)),
	}
	o.mu.Lock()
	o.session = sess
	o.mu.Unlock()

	log := o.log.With("session", sess.ID)
	log.Info("starting services", "count", len(o.services))

	var (
		mu      sync.Mutex
		primary *ServiceError
		others  []*ServiceError
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		se := &ServiceError{Service: name, Err: err}
		// Aborts are consequences of another failure, never the cause.
		if primary == nil && !errors.Is(err, process.ErrStartAborted) {
			primary = se
			return
		}
		others = append(others, se)
	}

	g, gctx := errgroup.WithContext(ctx)
	handles := make([]*process.Handle, len(o.services))
	for i, svc := range o.services {
		g.Go(func() error {
			if err := svc.Install(gctx); err != nil {
				fail(svc.Name(), err)
				return err
			}
			h, err := svc.Start(gctx)
			if err != nil {
				fail(svc.Name(), err)
				return err
			}
			handles[i] = h
			return nil
		})
	}
	_ = g.Wait()

	if primary == nil && len(others) > 0 {
		// Every failure was an abort: the caller's context ended.
		primary, others = others[0], others[1:]
	}

	for i, svc := range o.services {
		if h := handles[i]; h != nil {
			for name, other := range sess.Handles {
				if other == h {
					return sess, fmt.Errorf("%s and %s: %w", name, svc.Name(), ErrDuplicateHandle)
				}
			}
			sess.Handles[svc.Name()] = h
		}
	}

	if primary != nil {
		err := &StartError{Primary: primary, Secondary: others}
		log.Error("start failed", "error", err)
		return sess, err
	}
	log.Info("services started", "elapsed", time.Since(sess.Started))
	return sess, nil
}

// Stop stops every service in parallel, whatever its state, and reports
// each outcome. A service still stopping when ctx ends is reported with
// ErrStopTimedOut; its Stop keeps running in the background. The returned
// error joins every failure.
func (o *Orchestrator) Stop(ctx context.Context) (StopReport, error) {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()

	log := o.log
	if sess != nil {
		log = log.With("session", sess.ID)
	}

	type outcome struct {
		idx int
		err error
	}
	results := make(chan outcome, len(o.services))
	var wg sync.WaitGroup
	for i, svc := range o.services {
		wg.Go(func() {
			results <- outcome{idx: i, err: svc.Stop()}
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	report := make(StopReport, len(o.services))
	done := make([]bool, len(o.services))
	record := func(r outcome) {
		done[r.idx] = true
		report[r.idx] = StopResult{Service: o.services[r.idx].Name(), Err: r.err}
	}
collect:
	for {
		select {
		case r, ok := <-results:
			if !ok {
				break collect
			}
			record(r)
		case <-ctx.Done():
			// Keep results that are already in.
			for {
				select {
				case r, ok := <-results:
					if !ok {
						break collect
					}
					record(r)
				default:
					break collect
				}
			}
		}
	}

	var errs []error
	for i, svc := range o.services {
		if !done[i] {
			report[i] = StopResult{
				Service: svc.Name(),
				Err:     fmt.Errorf("%w: %w", ErrStopTimedOut, context.Cause(ctx)),
			}
		}
		report[i].State = svc.State()
		if report[i].Err != nil {
			errs = append(errs, &ServiceError{Service: svc.Name(), Err: report[i].Err})
		}
	}

	o.mu.Lock()
	if o.session == sess {
		o.session = nil
	}
	o.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		log.Error("stop incomplete", "error", err)
		return report, err
	}
	log.Info("services stopped")
	return report, nil
}
