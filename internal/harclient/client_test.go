package harclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBrowserMob serves the subset of the REST API the client uses.
type fakeBrowserMob struct {
	mu      sync.Mutex
	harForm map[string]string
	closed  bool
	failHAR bool
}

func (f *fakeBrowserMob) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/proxy":
		_, _ = w.Write([]byte(`{"port":8081}`))
	case r.Method == http.MethodPut && r.URL.Path == "/proxy/8081/har":
		_ = r.ParseForm()
		f.harForm = map[string]string{}
		for k := range r.PostForm {
			f.harForm[k] = r.PostForm.Get(k)
		}
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/proxy/8081/har":
		if f.failHAR {
			http.Error(w, "no HAR", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"log":{"version":"1.2","creator":{"name":"BrowserMob Proxy","version":"2.1.4"},
			"pages":[{"id":"login","title":"login"}],
			"entries":[{"pageref":"login","request":{"method":"GET","url":"http://example.test/Login"},"response":{"status":200}}]}}`))
	case r.Method == http.MethodDelete && r.URL.Path == "/proxy/8081":
		f.closed = true
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBrowserMob) form(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.harForm[key]
}

func (f *fakeBrowserMob) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestClient(t *testing.T, fake *fakeBrowserMob) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(strings.TrimPrefix(srv.URL, "http://"), srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClient_RecordingFlow(t *testing.T) {
	t.Parallel()

	fake := &fakeBrowserMob{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	port, err := c.CreateProxy(ctx)
	if err != nil {
		t.Fatalf("CreateProxy: %v", err)
	}
	if port != 8081 {
		t.Fatalf("port = %d, want 8081", port)
	}
	if err := c.StartHAR(ctx, port, HAROptions{InitialPageRef: "login", CaptureHeaders: true}); err != nil {
		t.Fatalf("StartHAR: %v", err)
	}
	if fake.form("initialPageRef") != "login" || fake.form("captureHeaders") != "true" {
		t.Errorf("HAR form: initialPageRef=%q captureHeaders=%q", fake.form("initialPageRef"), fake.form("captureHeaders"))
	}

	har, err := c.HAR(ctx, port)
	if err != nil {
		t.Fatalf("HAR: %v", err)
	}
	if got := har.EntriesFor("/login"); len(got) != 1 || got[0].Response.Status != 200 {
		t.Errorf("EntriesFor(/login) = %+v", got)
	}
	if har.Log.Creator.Name != "BrowserMob Proxy" {
		t.Errorf("creator = %q", har.Log.Creator.Name)
	}

	if err := c.CloseProxy(ctx, port); err != nil {
		t.Fatalf("CloseProxy: %v", err)
	}
	if !fake.isClosed() {
		t.Error("proxy port was not closed")
	}
}

func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeBrowserMob{failHAR: true})
	_, err := c.HAR(context.Background(), 8081)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("HAR error = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusNotFound || statusErr.Body != "no HAR" {
		t.Errorf("StatusError = %+v", statusErr)
	}
}

func TestClient_ProxyAddress(t *testing.T) {
	t.Parallel()

	c, err := New("127.0.0.1:8080", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.ProxyAddress(8081); got != "127.0.0.1:8081" {
		t.Errorf("ProxyAddress = %q, want %q", got, "127.0.0.1:8081")
	}
}
