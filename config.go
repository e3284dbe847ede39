package browserenv

import (
	"os"
	"path/filepath"

	"github.com/giantswarm/browserenv/internal/browsermob"
	"github.com/giantswarm/browserenv/internal/core"
	"github.com/giantswarm/browserenv/internal/selenium"
)

// envConfig wraps core.EnvConfig, keeping internal types out of the public
// API signature. baseDir is remembered so WithDir can re-derive both
// service layouts without losing other overrides.
type envConfig struct {
	core.EnvConfig
	baseDir string
}

// toCoreConfig returns the embedded core.EnvConfig.
func (c envConfig) toCoreConfig() core.EnvConfig {
	return c.EnvConfig
}

// setBaseDir points both services at their subdirectories of dir.
func (c *envConfig) setBaseDir(dir string) {
	c.baseDir = dir

	bmDir := filepath.Join(dir, BrowserMobSubdir)
	defaults := browsermob.Defaults(bmDir)
	c.BrowserMob.Dir = defaults.Dir
	c.BrowserMob.WorkDir = defaults.WorkDir

	c.Selenium.Dir = filepath.Join(dir, SeleniumSubdir)
}

// defaultBaseDir returns the per-user cache location for installs.
func defaultBaseDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = os.TempDir()
	}
	return filepath.Join(cache, DefaultDirName)
}

// defaultEnvConfig returns an envConfig populated with all default values.
// Both New and test helpers use it.
func defaultEnvConfig() envConfig {
	dir := defaultBaseDir()
	bm := browsermob.Defaults(filepath.Join(dir, BrowserMobSubdir))
	bm.StartTimeout = DefaultStartTimeout
	sel := selenium.Defaults(filepath.Join(dir, SeleniumSubdir))
	sel.StartTimeout = DefaultStartTimeout

	return envConfig{
		EnvConfig: core.EnvConfig{
			BrowserMob:      bm,
			Selenium:        sel,
			GracefulTimeout: DefaultGracefulTimeout,
			KillTimeout:     DefaultKillTimeout,
			StopTimeout:     DefaultStopTimeout,
		},
		baseDir: dir,
	}
}
