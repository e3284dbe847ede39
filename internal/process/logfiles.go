package process

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/browserenv/internal/fileutil"
)

// LogFiles holds the stdout/stderr log files a process's output is teed to.
// The zero value has no files and is safe to Close.
type LogFiles struct {
	stdoutFile *os.File
	stderrFile *os.File
	dir        string
	name       string
}

// NewLogFiles creates <dir>/<name>-stdout.log and <dir>/<name>-stderr.log,
// creating dir if needed. Existing logs are truncated.
func NewLogFiles(dir, name string) (LogFiles, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return LogFiles{}, fmt.Errorf("create log directory: %w", err)
	}
	l := LogFiles{dir: dir, name: name}
	stdoutFile, err := os.Create(l.StdoutPath())
	if err != nil {
		return LogFiles{}, fmt.Errorf("create stdout log: %w", err)
	}
	stderrFile, err := os.Create(l.StderrPath())
	if err != nil {
		_ = stdoutFile.Close()
		return LogFiles{}, fmt.Errorf("create stderr log: %w", err)
	}
	l.stdoutFile = stdoutFile
	l.stderrFile = stderrFile
	return l, nil
}

// StdoutPath returns the path of the stdout log, or "" when none is kept.
func (l LogFiles) StdoutPath() string {
	if l.dir == "" {
		return ""
	}
	return filepath.Join(l.dir, l.name+"-stdout.log")
}

// StderrPath returns the path of the stderr log, or "" when none is kept.
func (l LogFiles) StderrPath() string {
	if l.dir == "" {
		return ""
	}
	return filepath.Join(l.dir, l.name+"-stderr.log")
}

// paths returns a copy that names the files without owning them.
func (l LogFiles) paths() LogFiles {
	return LogFiles{dir: l.dir, name: l.name}
}

// Close closes both files and nils them to prevent double-close.
func (l *LogFiles) Close() {
	if l.stdoutFile != nil {
		_ = l.stdoutFile.Close()
		l.stdoutFile = nil
	}
	if l.stderrFile != nil {
		_ = l.stderrFile.Close()
		l.stderrFile = nil
	}
}
