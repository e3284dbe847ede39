// Package selenium defines how the Selenium standalone server is installed
// and started.
package selenium

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/giantswarm/browserenv/internal/install"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

// Service name used in logs, errors and metrics.
const Name = "selenium"

// Release defaults.
const (
	Version        = "3.141.59"
	JarName        = "selenium-server-standalone-" + Version + ".jar"
	DefaultURL     = "https://selenium-release.storage.googleapis.com/3.141/" + JarName
	DefaultPort    = 4444
	DefaultTimeout = 30 * time.Second
	DefaultHost    = "127.0.0.1"
)

// DefaultReadyPattern matches the banner the server logs (on stderr) once
// it accepts sessions.
var DefaultReadyPattern = regexp.MustCompile(`Selenium Server is up and running`)

// Options configures the Selenium service. Use Defaults and override.
type Options struct {
	Dir     string // install directory holding the jar
	URL     string
	Command string
	// JavaOptions go before -jar, e.g. -Dwebdriver.chrome.driver=...
	JavaOptions  []string
	Host         string
	Port         int
	ReadyPattern *regexp.Regexp
	StartTimeout time.Duration
	ForceInstall bool
}

// Defaults returns the options for Selenium 3.141.59 installed in dir.
func Defaults(dir string) Options {
	return Options{
		Dir:          dir,
		URL:          DefaultURL,
		Command:      "java",
		Host:         DefaultHost,
		Port:         DefaultPort,
		ReadyPattern: DefaultReadyPattern,
		StartTimeout: DefaultTimeout,
	}
}

// JarPath returns where the server jar is installed.
func (o Options) JarPath() string {
	return filepath.Join(o.Dir, JarName)
}

// Args builds the command line for port.
func (o Options) Args(port int) []string {
	args := append([]string(nil), o.JavaOptions...)
	return append(args, "-jar", o.JarPath(), "-host", o.Host, "-port", strconv.Itoa(port))
}

// Artifact returns the installer for the server jar.
func (o Options) Artifact(logger *slog.Logger) *install.Artifact {
	return &install.Artifact{
		Name:     Name,
		URL:      o.URL,
		Dir:      o.Dir,
		FileName: JarName,
		Force:    o.ForceInstall,
		Logger:   logger,
	}
}

// Service returns the supervisor configuration. The server logs through
// java.util.logging, which writes to stderr, so readiness watches both
// streams and the port is confirmed before the service counts as running.
func (o Options) Service() supervisor.Config {
	return supervisor.Config{
		Name:             Name,
		Command:          o.Command,
		Args:             o.Args,
		Dir:              o.Dir,
		Host:             o.Host,
		Port:             o.Port,
		ReadyPattern:     o.ReadyPattern,
		MergeStderr:      true,
		ConfirmListening: true,
		StartTimeout:     o.StartTimeout,
	}
}
