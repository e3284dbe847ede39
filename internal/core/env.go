package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giantswarm/browserenv/internal/browsermob"
	"github.com/giantswarm/browserenv/internal/harclient"
	"github.com/giantswarm/browserenv/internal/metrics"
	"github.com/giantswarm/browserenv/internal/netutil"
	"github.com/giantswarm/browserenv/internal/orchestrator"
	"github.com/giantswarm/browserenv/internal/selenium"
	"github.com/giantswarm/browserenv/internal/sentinel"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// ErrNotStarted is returned by Addresses and RunTest while a service is not
// running.
const ErrNotStarted = sentinel.Error("environment not started")

// Addresses are the endpoints of a running environment.
type Addresses struct {
	// ProxyAPI is host:port of the BrowserMob REST API.
	ProxyAPI string
	// AutomationServer is host:port of the Selenium server.
	AutomationServer string
}

// AutomationServerURL returns the WebDriver endpoint of the Selenium server.
func (a Addresses) AutomationServerURL() string {
	return "http://" + a.AutomationServer + "/wd/hub"
}

// Env is a BrowserMob Proxy plus Selenium environment.
type Env struct {
	cfg        EnvConfig
	log        *slog.Logger
	ports      supervisor.PortFinder
	browserMob *supervisor.Supervisor
	selenium   *supervisor.Supervisor
	orch       *orchestrator.Orchestrator
}

// NewEnv builds both supervisors and the orchestrator. Nothing is installed
// or started.
func NewEnv(cfg EnvConfig) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	hook := cfg.OnStateChange
	if cfg.Registerer != nil {
		collector := metrics.NewCollectorWithRegistry(cfg.Registerer)
		user := cfg.OnStateChange
		hook = func(service string, from, to supervisor.State) {
			collector.OnStateChange(service, from, to)
			if user != nil {
				user(service, from, to)
			}
		}
	}

	e := &Env{cfg: cfg, log: log, ports: cfg.Ports}
	if e.ports == nil {
		e.ports = netutil.NewPortRegistry("", log)
	}

	var err error
	e.browserMob, err = supervisor.New(e.serviceConfig(cfg.BrowserMob.Service(), cfg.BrowserMob.Artifact(log), hook))
	if err != nil {
		return nil, err
	}
	e.selenium, err = supervisor.New(e.serviceConfig(cfg.Selenium.Service(), cfg.Selenium.Artifact(log), hook))
	if err != nil {
		return nil, err
	}
	e.orch, err = orchestrator.New(log, e.browserMob, e.selenium)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Env) serviceConfig(c supervisor.Config, installer supervisor.Installer, hook func(string, supervisor.State, supervisor.State)) supervisor.Config {
	c.Installer = installer
	c.Ports = e.ports
	c.GracefulTimeout = e.cfg.GracefulTimeout
	c.KillTimeout = e.cfg.KillTimeout
	c.LogDir = e.cfg.LogDir
	c.Logger = e.log
	c.OnStateChange = hook
	return c
}

// Install downloads whatever is missing for both services.
func (e *Env) Install(ctx context.Context) error {
	return e.orch.Install(ctx)
}

// Start installs and starts both services concurrently. On failure the
// services that did start keep running; call Stop.
func (e *Env) Start(ctx context.Context) (*orchestrator.Session, error) {
	return e.orch.Start(ctx)
}

// Stop stops both services, bounded by StopTimeout when configured.
func (e *Env) Stop(ctx context.Context) (orchestrator.StopReport, error) {
	if e.cfg.StopTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StopTimeout)
		defer cancel()
	}
	return e.orch.Stop(ctx)
}

// Status maps service names to their states.
func (e *Env) Status() map[string]supervisor.State {
	return e.orch.Status()
}

// Session returns the current orchestration session, or nil.
func (e *Env) Session() *orchestrator.Session {
	return e.orch.Session()
}

// Addresses returns the endpoints of both services. It fails with
// ErrNotStarted unless both are running.
func (e *Env) Addresses() (Addresses, error) {
	for _, s := range []*supervisor.Supervisor{e.browserMob, e.selenium} {
		if st := s.State(); st != supervisor.Running {
			return Addresses{}, fmt.Errorf("%s is %s: %w", s.Name(), st, ErrNotStarted)
		}
	}
	return Addresses{
		ProxyAPI:         e.browserMob.Addr(),
		AutomationServer: e.selenium.Addr(),
	}, nil
}

// proxyClient returns a REST client for the running BrowserMob API.
func (e *Env) proxyClient(addrs Addresses) (*harclient.Client, error) {
	return harclient.New(addrs.ProxyAPI, nil)
}

// Service names, for Status lookups.
const (
	BrowserMobService = browsermob.Name
	SeleniumService   = selenium.Name
)
