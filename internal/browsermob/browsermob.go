// Package browsermob defines how BrowserMob Proxy is installed and started.
package browsermob

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
const Name = "browsermob"

// Release defaults.
const (
	Version          = "2.1.4"
	DefaultBinaryURL = "https://github.com/lightbody/browsermob-proxy/releases/download/browsermob-proxy-" + Version + "/browsermob-proxy-" + Version + "-bin.zip"
	DefaultPort      = 8080
	DefaultTimeout   = 30 * time.Second
	DefaultHost      = "127.0.0.1"
)

// DefaultReadyPattern matches the line Jetty logs once the API listens.
var DefaultReadyPattern = regexp.MustCompile(`Started SelectChannelConnector`)

// Options configures the BrowserMob service. Use Defaults and override.
type Options struct {
	// Dir is the install directory; the archive is unpacked below Dir/bm.
	Dir       string
	BinaryURL string
	Command   string
	// Args builds the command line for the chosen port.
	Args func(port int) []string
	// WorkDir is the working directory of Command.
	WorkDir      string
	Host         string
	Port         int
	ReadyPattern *regexp.Regexp
	StartTimeout time.Duration
	ForceInstall bool
}

// Defaults returns the options for BrowserMob Proxy 2.1.4 installed in dir.
func Defaults(dir string) Options {
	return Options{
		Dir:          dir,
		BinaryURL:    DefaultBinaryURL,
		Command:      "java",
		Args:         defaultArgs(DefaultHost),
		WorkDir:      filepath.Join(dir, "bm", "browsermob-proxy-"+Version),
		Host:         DefaultHost,
		Port:         DefaultPort,
		ReadyPattern: DefaultReadyPattern,
		StartTimeout: DefaultTimeout,
	}
}

func defaultArgs(host string) func(port int) []string {
	return func(port int) []string {
		return []string{
			"-jar", filepath.Join("lib", "browsermob-dist-"+Version+".jar"),
			"--address", host,
			"--port", strconv.Itoa(port),
		}
	}
}

// Artifact returns the installer for the release archive.
func (o Options) Artifact(logger *slog.Logger) *install.Artifact {
	return &install.Artifact{
		Name:       Name,
		URL:        o.BinaryURL,
		Dir:        o.Dir,
		FileName:   "bm.zip",
		ExtractDir: "bm",
		Force:      o.ForceInstall,
		Logger:     logger,
	}
}

// Service returns the supervisor configuration. Timeouts, ports, logging
// and hooks are left to the caller.
func (o Options) Service() supervisor.Config {
	return supervisor.Config{
		Name:         Name,
		Command:      o.Command,
		Args:         o.Args,
		Dir:          o.WorkDir,
		Host:         o.Host,
		Port:         o.Port,
		ReadyPattern: o.ReadyPattern,
		StartTimeout: o.StartTimeout,
	}
}
