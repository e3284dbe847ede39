package core

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/browserenv/internal/browsermob"
	"github.com/giantswarm/browserenv/internal/netutil"
	"github.com/giantswarm/browserenv/internal/selenium"
	"github.com/giantswarm/browserenv/internal/supervisor"
)

const (
	fakeBrowserMobPort = 18080
	fakeSeleniumPort   = 14444
)

// mappedPorts answers the two preferred ports with fixed ones and defers
// everything else to a registry.
type mappedPorts struct {
	fixed    map[int]int
	registry *netutil.PortRegistry
}

func (m mappedPorts) FindFreePort(preferred int) (int, error) {
	if p, ok := m.fixed[preferred]; ok {
		return p, nil
	}
	return m.registry.FindFreePort(preferred)
}

func (m mappedPorts) Release(port int) { m.registry.Release(port) }

// fakeProxyAPI is a minimal BrowserMob REST API.
type fakeProxyAPI struct {
	mu     sync.Mutex
	closed []string
}

func (f *fakeProxyAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/proxy":
		_, _ = w.Write([]byte(`{"port":9091}`))
	case r.Method == http.MethodPut && r.URL.Path == "/proxy/9091/har":
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/proxy/9091/har":
		_, _ = w.Write([]byte(`{"log":{"version":"1.2","entries":[{"request":{"method":"GET","url":"http://app.test/"},"response":{"status":200}}]}}`))
	case r.Method == http.MethodDelete && r.URL.Path == "/proxy/9091":
		f.mu.Lock()
		f.closed = append(f.closed, r.URL.Path)
		f.mu.Unlock()
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeProxyAPI) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closed)
}

func serverPort(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	return srv.Listener.Addr().(*net.TCPAddr).Port
}

// newTestEnv builds an Env whose services are shell scripts printing the
// real readiness banners, backed by httptest servers for their ports.
func newTestEnv(t *testing.T, api http.Handler) (*Env, *prometheus.Registry) {
	t.Helper()

	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)
	seleniumSrv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(seleniumSrv.Close)

	bmp := browsermob.Defaults(t.TempDir())
	bmp.Command = "/bin/sh"
	bmp.WorkDir = ""
	bmp.Port = fakeBrowserMobPort
	bmp.StartTimeout = 5 * time.Second
	bmp.Args = func(int) []string {
		return []string{"-c", "echo 'INFO Started SelectChannelConnector@127.0.0.1'; exec sleep 30"}
	}

	sel := selenium.Defaults(t.TempDir())
	sel.Command = "/bin/sh"
	sel.Port = fakeSeleniumPort
	sel.StartTimeout = 5 * time.Second
	sel.JavaOptions = []string{"-c", "echo 'Selenium Server is up and running' >&2; exec sleep 30", "sh"}

	registry := prometheus.NewRegistry()
	env, err := NewEnv(EnvConfig{
		BrowserMob:      bmp,
		Selenium:        sel,
		GracefulTimeout: 2 * time.Second,
		KillTimeout:     2 * time.Second,
		StopTimeout:     10 * time.Second,
		Registerer:      registry,
		Ports: mappedPorts{
			fixed: map[int]int{
				fakeBrowserMobPort: serverPort(t, apiSrv),
				fakeSeleniumPort:   serverPort(t, seleniumSrv),
			},
			registry: netutil.NewPortRegistry("", nil),
		},
	})
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	t.Cleanup(func() { _, _ = env.Stop(context.Background()) })
	return env, registry
}

func TestEnv_StartRunTestStop(t *testing.T) {
	t.Parallel()

	api := &fakeProxyAPI{}
	env, registry := newTestEnv(t, api)
	ctx := context.Background()

	if _, err := env.Addresses(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Addresses before Start = %v, want ErrNotStarted", err)
	}

	sess, err := env.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(sess.Handles) != 2 {
		t.Errorf("session handles = %d, want 2", len(sess.Handles))
	}

	var seen TestAddresses
	result, err := env.RunTest(ctx, TestConfig{HAR: "home"}, func(_ context.Context, addrs TestAddresses) (any, error) {
		seen = addrs
		return "logged in", nil
	})
	if err != nil {
		t.Fatalf("RunTest: %v", err)
	}
	if result.Result != "logged in" {
		t.Errorf("Result = %v, want the test function's value", result.Result)
	}
	if seen.ProxyAddress != "127.0.0.1:9091" {
		t.Errorf("ProxyAddress = %q, want 127.0.0.1:9091", seen.ProxyAddress)
	}
	if result.HAR == nil || len(result.HAR.Log.Entries) != 1 {
		t.Errorf("HAR = %+v, want one entry", result.HAR)
	}
	if api.closedCount() != 1 {
		t.Errorf("proxy ports closed = %d, want 1", api.closedCount())
	}

	report, err := env.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, r := range report {
		if r.State != supervisor.Stopped {
			t.Errorf("%s state after Stop = %v", r.Service, r.State)
		}
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("no lifecycle metrics recorded")
	}
}

func TestEnv_RunTestReportsBothErrors(t *testing.T) {
	t.Parallel()

	api := &fakeProxyAPI{}
	env, _ := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		api.ServeHTTP(w, r)
	}))
	if _, err := env.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	testErr := errors.New("element not found")
	result, err := env.RunTest(context.Background(), TestConfig{HAR: "login"}, func(context.Context, TestAddresses) (any, error) {
		return 2, testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("RunTest error = %v, want the test error", err)
	}
	if result == nil || !errors.Is(result.TestErr, testErr) {
		t.Fatalf("result = %+v, want TestErr set", result)
	}
	if result.Result != 2 {
		t.Errorf("Result = %v, want the value returned alongside the error", result.Result)
	}
	if result.HAR != nil {
		t.Error("HAR should be nil when the fetch failed")
	}
	if api.closedCount() != 1 {
		t.Errorf("proxy port not closed after failure")
	}
}

func TestEnvConfig_Validate(t *testing.T) {
	t.Parallel()

	err := EnvConfig{StopTimeout: -1}.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) < 6 {
		t.Errorf("Validate should report every problem, got: %v", err)
	}
}
