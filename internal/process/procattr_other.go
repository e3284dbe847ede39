//go:build !unix

package process

import "os/exec"

// configureSysProcAttr is a no-op without process groups.
func configureSysProcAttr(_ *exec.Cmd) {}
