package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/browserenv/internal/browsermob"
	"github.com/giantswarm/browserenv/internal/selenium"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// EnvConfig holds everything needed to build an Env. All fields are
// immutable after NewEnv.
type EnvConfig struct {
	BrowserMob browsermob.Options
	Selenium   selenium.Options

	// LogDir, when set, receives each service's stdout and stderr logs.
	LogDir string

	// GracefulTimeout is how long a stopping service gets between SIGTERM
	// and SIGKILL.
	GracefulTimeout time.Duration
	// KillTimeout is how long to wait after SIGKILL before reporting the
	// process as unresponsive.
	KillTimeout time.Duration
	// StopTimeout bounds Env.Stop as a whole. Zero means no bound beyond
	// the caller's context.
	StopTimeout time.Duration

	// Ports hands out service ports. Nil uses a registry private to the
	// Env; share one registry between Envs in the same process.
	Ports supervisor.PortFinder

	// Registerer, when set, receives lifecycle metrics.
	Registerer prometheus.Registerer

	// OnStateChange is called on every service transition, after metrics
	// are recorded. It must not call back into the Env.
	OnStateChange func(service string, from, to supervisor.State)

	Logger *slog.Logger
}

// Validate checks every EnvConfig invariant and reports all violations.
func (c EnvConfig) Validate() error {
	var errs []error

	if c.BrowserMob.Dir == "" {
		errs = append(errs, errors.New("browsermob install directory must not be empty"))
	}
	if c.Selenium.Dir == "" {
		errs = append(errs, errors.New("selenium install directory must not be empty"))
	}
	if c.BrowserMob.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("browsermob start timeout must be greater than 0, got %s", c.BrowserMob.StartTimeout))
	}
	if c.Selenium.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("selenium start timeout must be greater than 0, got %s", c.Selenium.StartTimeout))
	}
	if c.GracefulTimeout <= 0 {
		errs = append(errs, fmt.Errorf("graceful timeout must be greater than 0, got %s", c.GracefulTimeout))
	}
	if c.KillTimeout <= 0 {
		errs = append(errs, fmt.Errorf("kill timeout must be greater than 0, got %s", c.KillTimeout))
	}
	if c.StopTimeout < 0 {
		errs = append(errs, fmt.Errorf("stop timeout must not be negative, got %s", c.StopTimeout))
	}

	return errors.Join(errs...)
}
