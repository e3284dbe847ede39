package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/giantswarm/browserenv/internal/fileutil"
)

// Artifact is a downloadable service binary. It implements the installer
// interface the supervisor consumes.
type Artifact struct {
	Name     string // for logs and errors
	URL      string
	Dir      string // install directory; its presence means installed
	FileName string // name of the downloaded file inside Dir

	// ExtractDir, when set, marks the download as a zip archive to be
	// extracted into Dir/ExtractDir.
	ExtractDir string

	// Force reinstalls even when Dir exists.
	Force bool

	// Client is used for the download; nil uses NewHTTPClient(Logger).
	Client *retryablehttp.Client
	Logger *slog.Logger
}

// Validate reports configuration errors.
func (a *Artifact) Validate() error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if a.URL == "" {
		errs = append(errs, errors.New("URL must not be empty"))
	}
	if a.Dir == "" {
		errs = append(errs, errors.New("install directory must not be empty"))
	}
	if a.FileName == "" || filepath.Base(a.FileName) != a.FileName {
		errs = append(errs, fmt.Errorf("file name %q must be a plain file name", a.FileName))
	}
	return errors.Join(errs...)
}

// Path returns the location of the downloaded file.
func (a *Artifact) Path() string {
	return filepath.Join(a.Dir, a.FileName)
}

// Installed reports whether Dir exists.
func (a *Artifact) Installed() (bool, error) {
	return fileutil.Exists(a.Dir)
}

// Install makes the artifact available under Dir. It is a no-op when Dir
// exists and Force is unset. Every failure is an *InstallError.
func (a *Artifact) Install(ctx context.Context) error {
	if err := a.install(ctx); err != nil {
		return &InstallError{Name: a.Name, URL: a.URL, Dir: a.Dir, Err: err}
	}
	return nil
}

func (a *Artifact) install(ctx context.Context) error {
	if err := a.Validate(); err != nil {
		return err
	}
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}

	if !a.Force {
		if ok, err := a.Installed(); err != nil || ok {
			if ok {
				log.Debug("already installed", "artifact", a.Name, "dir", a.Dir)
			}
			return err
		}
	}

	dir := filepath.Clean(a.Dir)
	if err := fileutil.EnsureDirForFile(dir); err != nil {
		return err
	}
	fl, err := acquireFileLock(ctx, dir+".lock")
	if err != nil {
		return err
	}
	defer releaseFileLock(log, fl)

	// Another process may have finished the install while we waited.
	if !a.Force {
		if ok, err := a.Installed(); err != nil || ok {
			return err
		}
	}

	staging, err := os.MkdirTemp(filepath.Dir(dir), "."+filepath.Base(dir)+"-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()
	if err := os.Chmod(staging, 0o755); err != nil {
		return fmt.Errorf("chmod staging directory: %w", err)
	}

	client := a.Client
	if client == nil {
		client = NewHTTPClient(log)
	}

	began := time.Now()
	log.Info("downloading", "artifact", a.Name, "url", a.URL)
	archive := filepath.Join(staging, a.FileName)
	n, err := download(ctx, client, a.URL, archive)
	if err != nil {
		return err
	}
	log.Debug("downloaded", "artifact", a.Name, "bytes", n, "elapsed", time.Since(began))

	if a.ExtractDir != "" {
		if err := unzip(archive, filepath.Join(staging, a.ExtractDir)); err != nil {
			return err
		}
	}

	if a.Force {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove previous install: %w", err)
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("move install into place: %w", err)
	}
	log.Info("installed", "artifact", a.Name, "dir", dir, "elapsed", time.Since(began))
	return nil
}
