package process

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps copying output after the process
// exits, for the case where a grandchild inherited the pipes.
const waitDelay = 2 * time.Second

// SpawnConfig describes a process to start.
type SpawnConfig struct {
	Name    string   // used in logs, errors and log file names
	Command string   // executable, resolved through PATH when not absolute
	Args    []string // arguments, excluding the command itself
	Dir     string   // working directory; "" uses the current one
	Env     []string // extra KEY=VALUE entries appended to os.Environ
	LogDir  string   // when set, output is teed to <LogDir>/<Name>-std{out,err}.log
	Logger  *slog.Logger

	// MergeStderr also delivers stderr chunks to stdout subscribers, so
	// AwaitReady sees both streams. The stderr tail and log stay separate.
	MergeStderr bool
}

// Spawn starts the process described by cfg. Any failure to create the
// process is returned as a *SpawnError; no Handle exists in that case.
func Spawn(cfg SpawnConfig) (*Handle, error) {
	if cfg.Name == "" {
		panic("browserenv: process name must not be empty")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	spawnErr := func(err error) error {
		return &SpawnError{Name: cfg.Name, Command: cfg.Command, Dir: cfg.Dir, Err: err}
	}
	if cfg.Command == "" {
		return nil, spawnErr(errors.New("empty command"))
	}

	var logFiles LogFiles
	if cfg.LogDir != "" {
		var err error
		if logFiles, err = NewLogFiles(cfg.LogDir, cfg.Name); err != nil {
			return nil, spawnErr(err)
		}
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	cmd.WaitDelay = waitDelay
	configureSysProcAttr(cmd)

	h := &Handle{
		name:     cfg.Name,
		cmd:      cmd,
		logFiles: logFiles,
		log:      log,
		exited:   make(chan struct{}),
		signalFn: signalProcess,
	}
	h.stdout = newStream(fileWriter(logFiles.stdoutFile))
	h.stderr = newStream(fileWriter(logFiles.stderrFile))
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr
	if cfg.MergeStderr {
		cmd.Stderr = mergedWriter{own: h.stderr, into: h.stdout}
	}

	if err := cmd.Start(); err != nil {
		logFiles.Close()
		return nil, spawnErr(err)
	}
	h.pid = cmd.Process.Pid
	log.Debug("process started", "process", cfg.Name, "pid", h.pid, "command", cfg.Command, "args", cfg.Args)

	go h.wait()
	return h, nil
}

// fileWriter avoids storing a typed nil *os.File in an io.Writer.
func fileWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}
