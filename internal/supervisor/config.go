package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultHost         = "127.0.0.1"
)

// Installer makes a service's binaries available.
type Installer interface {
	Install(ctx context.Context) error
}

// PortFinder hands out ports and takes them back.
type PortFinder interface {
	FindFreePort(preferred int) (int, error)
	Release(port int)
}

// Config describes a service. It is validated by New and not modified
// afterwards.
type Config struct {
	Name    string
	Command string
	// Args computes the argument list once the port is known.
	Args func(port int) []string
	Dir  string
	Env  []string

	// Host is the address the service listens on; used for Addr and the
	// listening check. Defaults to DefaultHost.
	Host string
	// Port is the preferred port. Zero lets the kernel choose.
	Port int

	// ReadyPattern is matched against the accumulated stdout.
	ReadyPattern *regexp.Regexp
	// MergeStderr feeds stderr into the readiness stream as well, for
	// services that log their banner to stderr.
	MergeStderr bool
	// ConfirmListening additionally waits for Host:port to accept a TCP
	// connection before reporting Running.
	ConfirmListening bool

	StartTimeout    time.Duration
	GracefulTimeout time.Duration
	KillTimeout     time.Duration

	// Installer may be nil when there is nothing to install.
	Installer Installer
	// Ports is required.
	Ports PortFinder

	// LogDir, when set, receives <Name>-stdout.log and <Name>-stderr.log.
	LogDir string
	Logger *slog.Logger

	// OnStateChange is called on every transition, with the supervisor's
	// lock held. It must not call back into the Supervisor.
	OnStateChange func(name string, from, to State)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.Command == "" {
		errs = append(errs, errors.New("command must not be empty"))
	}
	if c.Args == nil {
		errs = append(errs, errors.New("args function must not be nil"))
	}
	if c.ReadyPattern == nil {
		errs = append(errs, errors.New("ready pattern must not be nil"))
	}
	if c.Ports == nil {
		errs = append(errs, errors.New("port finder must not be nil"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 0 and 65535"))
	}
	if c.StartTimeout < 0 {
		errs = append(errs, errors.New("start timeout must not be negative"))
	}
	if c.GracefulTimeout < 0 {
		errs = append(errs, errors.New("graceful timeout must not be negative"))
	}
	if c.KillTimeout < 0 {
		errs = append(errs, errors.New("kill timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.StartTimeout == 0 {
		c.StartTimeout = DefaultStartTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
