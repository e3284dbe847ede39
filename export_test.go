package browserenv

import (
	"regexp"
	"time"
)

// ConfigSnapshot holds a copy of envConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	BaseDir           string
	BrowserMobDir     string
	BrowserMobWorkDir string
	SeleniumDir       string
	LogDir            string
	BrowserMobPort    int
	SeleniumPort      int
	BrowserMobHost    string
	SeleniumHost      string
	BrowserMobURL     string
	SeleniumURL       string
	BrowserMobCommand string
	SeleniumCommand   string
	JavaOptions       []string
	BrowserMobPattern *regexp.Regexp
	SeleniumPattern   *regexp.Regexp
	BrowserMobStart   time.Duration
	SeleniumStart     time.Duration
	GracefulTimeout   time.Duration
	KillTimeout       time.Duration
	StopTimeout       time.Duration
	ForceInstall      bool
	HasRegisterer     bool
	HasObserver       bool
	HasLogger         bool
}

// ApplyOptionsForTesting creates a default envConfig, applies the given
// options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultEnvConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		BaseDir:           cfg.baseDir,
		BrowserMobDir:     cfg.BrowserMob.Dir,
		BrowserMobWorkDir: cfg.BrowserMob.WorkDir,
		SeleniumDir:       cfg.Selenium.Dir,
		LogDir:            cfg.LogDir,
		BrowserMobPort:    cfg.BrowserMob.Port,
		SeleniumPort:      cfg.Selenium.Port,
		BrowserMobHost:    cfg.BrowserMob.Host,
		SeleniumHost:      cfg.Selenium.Host,
		BrowserMobURL:     cfg.BrowserMob.BinaryURL,
		SeleniumURL:       cfg.Selenium.URL,
		BrowserMobCommand: cfg.BrowserMob.Command,
		SeleniumCommand:   cfg.Selenium.Command,
		JavaOptions:       cfg.Selenium.JavaOptions,
		BrowserMobPattern: cfg.BrowserMob.ReadyPattern,
		SeleniumPattern:   cfg.Selenium.ReadyPattern,
		BrowserMobStart:   cfg.BrowserMob.StartTimeout,
		SeleniumStart:     cfg.Selenium.StartTimeout,
		GracefulTimeout:   cfg.GracefulTimeout,
		KillTimeout:       cfg.KillTimeout,
		StopTimeout:       cfg.StopTimeout,
		ForceInstall:      cfg.BrowserMob.ForceInstall && cfg.Selenium.ForceInstall,
		HasRegisterer:     cfg.Registerer != nil,
		HasObserver:       cfg.OnStateChange != nil,
		HasLogger:         cfg.Logger != nil,
	}
}
