package browserenv

import (
	"time"

	"github.com/giantswarm/browserenv/internal/browsermob"
	"github.com/giantswarm/browserenv/internal/process"
	"github.com/giantswarm/browserenv/internal/selenium"
)

// Default configuration values for New. They are exported so callers can
// derive their own values from them (e.g. 2 * DefaultStartTimeout).
const (
	// DefaultDirName is the directory under os.UserCacheDir where both
	// services are installed. Falls back to os.TempDir when no cache
	// directory is available.
	DefaultDirName = "browserenv"

	// BrowserMobSubdir and SeleniumSubdir are the per-service install
	// directories below the base directory.
	BrowserMobSubdir = "browsermob"
	SeleniumSubdir   = "selenium"

	// DefaultBrowserMobPort is the port tried first for the proxy API.
	DefaultBrowserMobPort = browsermob.DefaultPort

	// DefaultSeleniumPort is the port tried first for the automation server.
	DefaultSeleniumPort = selenium.DefaultPort

	// DefaultStartTimeout bounds each service's startup, from spawn until
	// its readiness banner is seen.
	DefaultStartTimeout = 30 * time.Second

	// DefaultGracefulTimeout is the time between SIGTERM and SIGKILL.
	DefaultGracefulTimeout = process.DefaultGracefulTimeout

	// DefaultKillTimeout is the time after SIGKILL before a process is
	// reported unresponsive.
	DefaultKillTimeout = process.DefaultKillTimeout

	// DefaultStopTimeout bounds Env.Stop as a whole. It covers the
	// graceful and kill phases of both services running in parallel.
	DefaultStopTimeout = 30 * time.Second
)
