package supervisor_test

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/browserenv/internal/install"
	"github.com/giantswarm/browserenv/internal/netutil"
	"github.com/giantswarm/browserenv/internal/process"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

type installFunc func(ctx context.Context) error

func (f installFunc) Install(ctx context.Context) error { return f(ctx) }

// transitions records OnStateChange calls.
type transitions struct {
	mu  sync.Mutex
	got []supervisor.State
}

func (r *transitions) record(_ string, _, to supervisor.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, to)
}

func (r *transitions) states() []supervisor.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]supervisor.State(nil), r.got...)
}

func shellConfig(script string) supervisor.Config {
	return supervisor.Config{
		Name:            "svc",
		Command:         "/bin/sh",
		Args:            func(port int) []string { return []string{"-c", script, "sh", strconv.Itoa(port)} },
		ReadyPattern:    regexp.MustCompile(`ready on \d+`),
		StartTimeout:    5 * time.Second,
		GracefulTimeout: 2 * time.Second,
		KillTimeout:     2 * time.Second,
		Ports:           netutil.NewPortRegistry("", nil),
	}
}

func newInstalled(t *testing.T, cfg supervisor.Config) *supervisor.Supervisor {
	t.Helper()
	s, err := supervisor.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := supervisor.New(supervisor.Config{Port: -1})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"name", "command", "args", "pattern", "port finder", "port must"} {
		if !regexp.MustCompile(want).MatchString(err.Error()) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestStart_Lifecycle(t *testing.T) {
	t.Parallel()

	rec := &transitions{}
	cfg := shellConfig(`echo "ready on $1"; exec sleep 30`)
	cfg.OnStateChange = rec.record
	s := newInstalled(t, cfg)

	h, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != supervisor.Running {
		t.Errorf("State() = %v, want running", s.State())
	}
	if s.Port() == 0 || s.Addr() == "" {
		t.Errorf("no port held while running: port=%d addr=%q", s.Port(), s.Addr())
	}
	if _, err := s.Start(context.Background()); !errors.Is(err, supervisor.ErrAlreadyStarted) {
		t.Errorf("second Start error = %v, want ErrAlreadyStarted", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h.Alive() {
		t.Error("process still alive after Stop")
	}
	if s.State() != supervisor.Stopped || s.Port() != 0 {
		t.Errorf("after Stop: state=%v port=%d", s.State(), s.Port())
	}

	want := []supervisor.State{
		supervisor.Installed, supervisor.Starting, supervisor.Running,
		supervisor.Stopping, supervisor.Stopped,
	}
	got := rec.states()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
}

func TestStart_NotInstalled(t *testing.T) {
	t.Parallel()

	s, err := supervisor.New(shellConfig("true"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Start(context.Background()); !errors.Is(err, supervisor.ErrNotInstalled) {
		t.Errorf("Start error = %v, want ErrNotInstalled", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop on uninstalled service: %v", err)
	}
}

func TestInstall_Failure(t *testing.T) {
	t.Parallel()

	cfg := shellConfig("true")
	cfg.Installer = installFunc(func(context.Context) error { return errors.New("disk full") })
	s, err := supervisor.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = s.Install(context.Background())
	if !errors.Is(err, install.ErrInstall) {
		t.Fatalf("Install error = %v, want ErrInstall", err)
	}
	if s.State() != supervisor.Failed {
		t.Errorf("State() = %v, want failed", s.State())
	}
	if _, err := s.Start(context.Background()); !errors.Is(err, supervisor.ErrNotInstalled) {
		t.Errorf("Start after failed install = %v, want ErrNotInstalled", err)
	}
}

func TestStart_Failures(t *testing.T) {
	t.Parallel()

	type testCase struct {
		cfg     func() supervisor.Config
		wantErr error
	}

	tests := map[string]testCase{
		"premature exit": {
			cfg:     func() supervisor.Config { return shellConfig("echo booting; exit 0") },
			wantErr: process.ErrPrematureExit,
		},
		"startup timeout": {
			cfg: func() supervisor.Config {
				cfg := shellConfig("exec sleep 30")
				cfg.StartTimeout = 300 * time.Millisecond
				return cfg
			},
			wantErr: process.ErrStartupTimeout,
		},
		"spawn failure": {
			cfg: func() supervisor.Config {
				cfg := shellConfig("true")
				cfg.Command = "/nonexistent/java"
				return cfg
			},
			wantErr: process.ErrSpawn,
		},
	}

	kinds := []error{process.ErrPrematureExit, process.ErrStartupTimeout, process.ErrSpawn, process.ErrStartAborted}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newInstalled(t, tc.cfg())
			h, err := s.Start(context.Background())
			if h != nil {
				t.Error("failed Start returned a handle")
			}
			for _, kind := range kinds {
				if got, want := errors.Is(err, kind), kind == tc.wantErr; got != want {
					t.Errorf("errors.Is(%v, %v) = %v, want %v", err, kind, got, want)
				}
			}
			if s.State() != supervisor.Failed {
				t.Errorf("State() = %v, want failed", s.State())
			}
			if s.Port() != 0 {
				t.Errorf("port %d still held after failure", s.Port())
			}
		})
	}
}

func TestStop_DuringStart(t *testing.T) {
	t.Parallel()

	s := newInstalled(t, shellConfig("exec sleep 30"))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background())
		errCh <- err
	}()
	deadline := time.Now().Add(5 * time.Second)
	for s.State() != supervisor.Starting {
		if time.Now().After(deadline) {
			t.Fatal("service never reached starting")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; !errors.Is(err, process.ErrStartAborted) {
		t.Errorf("Start error = %v, want ErrStartAborted", err)
	}
	if s.State() != supervisor.Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
}

func TestCrashDetection(t *testing.T) {
	t.Parallel()

	s := newInstalled(t, shellConfig(`echo "ready on $1"; sleep 0.2; exit 4`))
	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-s.Crashed():
	case <-time.After(5 * time.Second):
		t.Fatal("crash not detected")
	}
	if s.State() != supervisor.Crashed {
		t.Errorf("State() = %v, want crashed", s.State())
	}
	if !errors.Is(s.Err(), supervisor.ErrCrashed) {
		t.Errorf("Err() = %v, want ErrCrashed", s.Err())
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop after crash: %v", err)
	}
	if s.State() != supervisor.Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
}

func TestStart_ConfirmListening(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := shellConfig(`echo "ready on $1"; exec sleep 30`)
	cfg.ConfirmListening = true
	// A finder that always returns the test listener's port.
	cfg.Ports = fixedPort(port)
	s := newInstalled(t, cfg)

	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Addr() != ln.Addr().String() {
		t.Errorf("Addr() = %q, want %q", s.Addr(), ln.Addr().String())
	}
}

type fixedPort int

func (p fixedPort) FindFreePort(int) (int, error) { return int(p), nil }
func (fixedPort) Release(int)                     {}

func TestStateString(t *testing.T) {
	t.Parallel()

	for _, st := range supervisor.States() {
		if st.String() == "unknown" {
			t.Errorf("state %d has no name", int(st))
		}
	}
	if got := supervisor.State(99).String(); got != "unknown" {
		t.Errorf("State(99).String() = %q, want unknown", got)
	}
}
