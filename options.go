package browserenv

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("browserenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("browserenv: %s must not be empty", name))
	}
}

// requirePort panics unless port is a valid TCP port.
func requirePort(name string, port int) {
	if port <= 0 || port > 65535 {
		panic(fmt.Sprintf("browserenv: %s must be between 1 and 65535, got %d", name, port))
	}
}

// Option configures an Env during construction via New.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, out-of-range ports). Option values are typically constants,
// so an invalid value is a programmer error; the pattern mirrors
// [regexp.MustCompile].
type Option func(*envConfig)

// WithDir sets the base install directory. BrowserMob Proxy is installed
// under dir/browsermob and Selenium under dir/selenium.
//
// Default: os.UserCacheDir()/browserenv.
//
// Panics if dir is empty.
func WithDir(dir string) Option {
	requireNonEmpty("install directory", dir)
	return func(c *envConfig) {
		c.setBaseDir(dir)
	}
}

// WithLogDir makes each service write its stdout and stderr to
// dir/<service>-stdout.log and dir/<service>-stderr.log.
// Panics if dir is empty.
func WithLogDir(dir string) Option {
	requireNonEmpty("log directory", dir)
	return func(c *envConfig) {
		c.LogDir = dir
	}
}

// WithBrowserMobPort sets the port tried first for the proxy API. When it
// is taken a free port is chosen instead.
//
// Default: 8080.
func WithBrowserMobPort(port int) Option {
	requirePort("browsermob port", port)
	return func(c *envConfig) {
		c.BrowserMob.Port = port
	}
}

// WithSeleniumPort sets the port tried first for the automation server.
// When it is taken a free port is chosen instead.
//
// Default: 4444.
func WithSeleniumPort(port int) Option {
	requirePort("selenium port", port)
	return func(c *envConfig) {
		c.Selenium.Port = port
	}
}

// WithHost sets the address both services bind to.
// Panics if host is empty.
func WithHost(host string) Option {
	requireNonEmpty("host", host)
	return func(c *envConfig) {
		c.BrowserMob.Host = host
		c.Selenium.Host = host
	}
}

// WithBrowserMobURL sets the release archive to download.
// Panics if url is empty.
func WithBrowserMobURL(url string) Option {
	requireNonEmpty("browsermob URL", url)
	return func(c *envConfig) {
		c.BrowserMob.BinaryURL = url
	}
}

// WithSeleniumURL sets the server jar to download.
// Panics if url is empty.
func WithSeleniumURL(url string) Option {
	requireNonEmpty("selenium URL", url)
	return func(c *envConfig) {
		c.Selenium.URL = url
	}
}

// WithJavaCommand sets the java executable used for both services.
//
// Default: "java", looked up in PATH.
func WithJavaCommand(path string) Option {
	requireNonEmpty("java command", path)
	return func(c *envConfig) {
		c.BrowserMob.Command = path
		c.Selenium.Command = path
	}
}

// WithJavaOptions adds JVM flags to the Selenium command line, typically
// -Dwebdriver.chrome.driver=/path/to/chromedriver.
func WithJavaOptions(opts ...string) Option {
	opts = append([]string(nil), opts...)
	return func(c *envConfig) {
		c.Selenium.JavaOptions = append(c.Selenium.JavaOptions, opts...)
	}
}

// WithBrowserMobReadyPattern overrides the banner that marks the proxy API
// ready. Panics if re is nil.
func WithBrowserMobReadyPattern(re *regexp.Regexp) Option {
	if re == nil {
		panic("browserenv: browsermob ready pattern must not be nil")
	}
	return func(c *envConfig) {
		c.BrowserMob.ReadyPattern = re
	}
}

// WithSeleniumReadyPattern overrides the banner that marks the automation
// server ready. Panics if re is nil.
func WithSeleniumReadyPattern(re *regexp.Regexp) Option {
	if re == nil {
		panic("browserenv: selenium ready pattern must not be nil")
	}
	return func(c *envConfig) {
		c.Selenium.ReadyPattern = re
	}
}

// WithStartTimeout bounds each service's startup. The services start in
// parallel, so this is also roughly the bound on Env.Start.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithStartTimeout(d time.Duration) Option {
	requirePositive("start timeout", d)
	return func(c *envConfig) {
		c.BrowserMob.StartTimeout = d
		c.Selenium.StartTimeout = d
	}
}

// WithGracefulTimeout sets how long a stopping service may take to exit
// after SIGTERM before it is killed.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithGracefulTimeout(d time.Duration) Option {
	requirePositive("graceful timeout", d)
	return func(c *envConfig) {
		c.GracefulTimeout = d
	}
}

// WithKillTimeout sets how long to wait after SIGKILL before a process is
// reported unresponsive.
//
// Default: 5 seconds.
//
// Panics if d <= 0.
func WithKillTimeout(d time.Duration) Option {
	requirePositive("kill timeout", d)
	return func(c *envConfig) {
		c.KillTimeout = d
	}
}

// WithStopTimeout bounds Env.Stop. Services still stopping at the deadline
// are reported with ErrStopTimedOut.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *envConfig) {
		c.StopTimeout = d
	}
}

// WithForceInstall re-downloads both services even when they are present.
func WithForceInstall() Option {
	return func(c *envConfig) {
		c.BrowserMob.ForceInstall = true
		c.Selenium.ForceInstall = true
	}
}

// WithRegisterer records lifecycle metrics (state, start duration and
// outcome, stops, crashes) in reg. Panics if reg is nil.
func WithRegisterer(reg prometheus.Registerer) Option {
	if reg == nil {
		panic("browserenv: metrics registerer must not be nil")
	}
	return func(c *envConfig) {
		c.Registerer = reg
	}
}

// WithStateObserver calls fn on every service state transition. fn runs
// while the service's lock is held and must not call back into the Env.
func WithStateObserver(fn func(service string, from, to State)) Option {
	if fn == nil {
		panic("browserenv: state observer must not be nil")
	}
	return func(c *envConfig) {
		c.OnStateChange = fn
	}
}

// WithLogger sets the logger of this Env, overriding SetLogger.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("browserenv: logger must not be nil")
	}
	return func(c *envConfig) {
		c.Logger = l
	}
}
