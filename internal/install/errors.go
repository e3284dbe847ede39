package install

import (
	"fmt"

	"github.com/giantswarm/browserenv/internal/sentinel"
)

// ErrInstall is matched by every error returned from Artifact.Install.
const ErrInstall = sentinel.Error("install failed")

// InstallError reports a failed install with the artifact that caused it.
type InstallError struct {
	Name string
	URL  string
	Dir  string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s from %s into %s: %v", e.Name, e.URL, e.Dir, e.Err)
}

// Is matches ErrInstall.
func (e *InstallError) Is(target error) bool { return target == ErrInstall }

func (e *InstallError) Unwrap() error { return e.Err }
