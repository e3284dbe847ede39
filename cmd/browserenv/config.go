package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"github.com/giantswarm/browserenv"
)

// duration decodes TOML strings such as "30s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

type serviceConfig struct {
	Port int    `toml:"port"`
	URL  string `toml:"url"`
}

type timeoutConfig struct {
	Start    duration `toml:"start"`
	Graceful duration `toml:"graceful"`
	Kill     duration `toml:"kill"`
	Stop     duration `toml:"stop"`
}

type logConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// fileConfig is the --config file layout. Zero values leave the library
// defaults in place.
type fileConfig struct {
	Dir          string        `toml:"dir"`
	LogDir       string        `toml:"log_dir"`
	Host         string        `toml:"host"`
	Java         string        `toml:"java"`
	JavaOptions  []string      `toml:"java_options"`
	ForceInstall bool          `toml:"force_install"`
	MetricsAddr  string        `toml:"metrics_addr"`
	BrowserMob   serviceConfig `toml:"browsermob"`
	Selenium     serviceConfig `toml:"selenium"`
	Timeouts     timeoutConfig `toml:"timeouts"`
	Log          logConfig     `toml:"log"`
}

// loadConfig reads path. An empty path yields the zero config.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Flag names shared by registerFlags and applyFlags.
const (
	flagConfig          = "config"
	flagDir             = "dir"
	flagLogDir          = "log-dir"
	flagHost            = "host"
	flagJava            = "java"
	flagJavaOpt         = "java-opt"
	flagForceInstall    = "force-install"
	flagMetricsAddr     = "metrics-addr"
	flagBrowserMobPort  = "browsermob-port"
	flagBrowserMobURL   = "browsermob-url"
	flagSeleniumPort    = "selenium-port"
	flagSeleniumURL     = "selenium-url"
	flagStartTimeout    = "start-timeout"
	flagGracefulTimeout = "graceful-timeout"
	flagKillTimeout     = "kill-timeout"
	flagStopTimeout     = "stop-timeout"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
)

func registerFlags(fs *pflag.FlagSet) {
	fs.StringP(flagConfig, "c", "", "TOML configuration file")
	fs.String(flagDir, "", "base install directory (default: user cache dir)")
	fs.String(flagLogDir, "", "directory receiving service stdout/stderr logs")
	fs.String(flagHost, "", "address both services bind to")
	fs.String(flagJava, "", "java executable")
	fs.StringArray(flagJavaOpt, nil, "JVM option for the Selenium server (repeatable)")
	fs.Bool(flagForceInstall, false, "download services even when present")
	fs.String(flagMetricsAddr, "", "serve Prometheus metrics on this address")
	fs.Int(flagBrowserMobPort, 0, "preferred BrowserMob Proxy API port")
	fs.String(flagBrowserMobURL, "", "BrowserMob Proxy release archive URL")
	fs.Int(flagSeleniumPort, 0, "preferred Selenium server port")
	fs.String(flagSeleniumURL, "", "Selenium server jar URL")
	fs.Duration(flagStartTimeout, 0, "per-service startup timeout")
	fs.Duration(flagGracefulTimeout, 0, "time between SIGTERM and SIGKILL")
	fs.Duration(flagKillTimeout, 0, "time after SIGKILL before giving up")
	fs.Duration(flagStopTimeout, 0, "overall stop timeout")
	fs.String(flagLogLevel, "", "log level: debug, info, warn, error")
	fs.String(flagLogFormat, "", "log format: text, json")
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(fs *pflag.FlagSet, cfg *fileConfig) error {
	var errs []error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			v, err := fs.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	dur := func(name string, dst *duration) {
		if fs.Changed(name) {
			v, err := fs.GetDuration(name)
			errs = append(errs, err)
			*dst = duration(v)
		}
	}

	str(flagDir, &cfg.Dir)
	str(flagLogDir, &cfg.LogDir)
	str(flagHost, &cfg.Host)
	str(flagJava, &cfg.Java)
	str(flagMetricsAddr, &cfg.MetricsAddr)
	str(flagBrowserMobURL, &cfg.BrowserMob.URL)
	str(flagSeleniumURL, &cfg.Selenium.URL)
	str(flagLogLevel, &cfg.Log.Level)
	str(flagLogFormat, &cfg.Log.Format)
	num(flagBrowserMobPort, &cfg.BrowserMob.Port)
	num(flagSeleniumPort, &cfg.Selenium.Port)
	dur(flagStartTimeout, &cfg.Timeouts.Start)
	dur(flagGracefulTimeout, &cfg.Timeouts.Graceful)
	dur(flagKillTimeout, &cfg.Timeouts.Kill)
	dur(flagStopTimeout, &cfg.Timeouts.Stop)

	if fs.Changed(flagJavaOpt) {
		v, err := fs.GetStringArray(flagJavaOpt)
		errs = append(errs, err)
		cfg.JavaOptions = v
	}
	if fs.Changed(flagForceInstall) {
		v, err := fs.GetBool(flagForceInstall)
		errs = append(errs, err)
		cfg.ForceInstall = v
	}
	return errors.Join(errs...)
}

// Validate rejects values the library options would panic on.
func (c fileConfig) Validate() error {
	var errs []error
	for name, port := range map[string]int{"browsermob port": c.BrowserMob.Port, "selenium port": c.Selenium.Port} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 65535 (0 keeps the default), got %d", name, port))
		}
	}
	for name, d := range map[string]duration{
		"start timeout":    c.Timeouts.Start,
		"graceful timeout": c.Timeouts.Graceful,
		"kill timeout":     c.Timeouts.Kill,
		"stop timeout":     c.Timeouts.Stop,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, time.Duration(d)))
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// options translates the non-zero settings into library options.
func (c fileConfig) options() []browserenv.Option {
	var opts []browserenv.Option
	add := func(ok bool, opt func() browserenv.Option) {
		if ok {
			opts = append(opts, opt())
		}
	}

	add(c.Dir != "", func() browserenv.Option { return browserenv.WithDir(c.Dir) })
	add(c.LogDir != "", func() browserenv.Option { return browserenv.WithLogDir(c.LogDir) })
	add(c.Host != "", func() browserenv.Option { return browserenv.WithHost(c.Host) })
	add(c.Java != "", func() browserenv.Option { return browserenv.WithJavaCommand(c.Java) })
	add(len(c.JavaOptions) > 0, func() browserenv.Option { return browserenv.WithJavaOptions(c.JavaOptions...) })
	add(c.ForceInstall, browserenv.WithForceInstall)
	add(c.BrowserMob.Port > 0, func() browserenv.Option { return browserenv.WithBrowserMobPort(c.BrowserMob.Port) })
	add(c.BrowserMob.URL != "", func() browserenv.Option { return browserenv.WithBrowserMobURL(c.BrowserMob.URL) })
	add(c.Selenium.Port > 0, func() browserenv.Option { return browserenv.WithSeleniumPort(c.Selenium.Port) })
	add(c.Selenium.URL != "", func() browserenv.Option { return browserenv.WithSeleniumURL(c.Selenium.URL) })
	add(c.Timeouts.Start > 0, func() browserenv.Option {
		return browserenv.WithStartTimeout(time.Duration(c.Timeouts.Start))
	})
	add(c.Timeouts.Graceful > 0, func() browserenv.Option {
		return browserenv.WithGracefulTimeout(time.Duration(c.Timeouts.Graceful))
	})
	add(c.Timeouts.Kill > 0, func() browserenv.Option {
		return browserenv.WithKillTimeout(time.Duration(c.Timeouts.Kill))
	})
	add(c.Timeouts.Stop > 0, func() browserenv.Option {
		return browserenv.WithStopTimeout(time.Duration(c.Timeouts.Stop))
	})
	return opts
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// newLogger builds the CLI's logger on w.
func (c fileConfig) newLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
