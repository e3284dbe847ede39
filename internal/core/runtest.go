package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/browserenv/internal/harclient"
)

// cleanupTimeout bounds HAR retrieval and proxy port shutdown after a test,
// independent of the test's own context.
const cleanupTimeout = 30 * time.Second

// TestConfig configures one RunTest call.
type TestConfig struct {
	// HAR names the archive; it becomes the initial page reference.
	HAR            string
	CaptureHeaders bool
	CaptureContent bool
}

// TestAddresses is handed to the test function.
type TestAddresses struct {
	// ProxyAddress is host:port of the proxy port recording this test.
	ProxyAddress string
	// AutomationServerAddress is host:port of the Selenium server.
	AutomationServerAddress string
}

// TestFunc drives the browser. It should configure the browser to use
// ProxyAddress as its HTTP proxy. Its value ends up in TestResult.Result.
type TestFunc func(ctx context.Context, addrs TestAddresses) (any, error)

// TestResult holds what a RunTest recorded.
type TestResult struct {
	// Result is the value the test function returned, even on error.
	Result any
	// HAR is nil when it could not be fetched.
	HAR *harclient.HAR
	// TestErr is the test function's own error.
	TestErr error
}

// RunTest opens a dedicated proxy port, records a HAR while fn runs, then
// fetches the HAR and closes the port. The returned error joins fn's error
// (first) with any proxy error; the result is returned even on error when
// the HAR could be fetched.
func (e *Env) RunTest(ctx context.Context, cfg TestConfig, fn TestFunc) (*TestResult, error) {
	addrs, err := e.Addresses()
	if err != nil {
		return nil, err
	}
	client, err := e.proxyClient(addrs)
	if err != nil {
		return nil, err
	}

	port, err := client.CreateProxy(ctx)
	if err != nil {
		return nil, err
	}
	log := e.log.With("har", cfg.HAR, "proxy_port", port)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := client.StartHAR(ctx, port, harclient.HAROptions{
		InitialPageRef:   cfg.HAR,
		InitialPageTitle: cfg.HAR,
		CaptureHeaders:   cfg.CaptureHeaders,
		CaptureContent:   cfg.CaptureContent,
	}); err != nil {
		return nil, errors.Join(err, client.CloseProxy(cleanupCtx, port))
	}

	log.Debug("running test")
	value, testErr := fn(ctx, TestAddresses{
		ProxyAddress:            client.ProxyAddress(port),
		AutomationServerAddress: addrs.AutomationServer,
	})
	result := &TestResult{Result: value, TestErr: testErr}

	har, harErr := client.HAR(cleanupCtx, port)
	result.HAR = har
	closeErr := client.CloseProxy(cleanupCtx, port)

	if testErr != nil {
		testErr = fmt.Errorf("test %s: %w", cfg.HAR, testErr)
	}
	if err := errors.Join(testErr, harErr, closeErr); err != nil {
		log.Debug("test finished with errors", "error", err)
		return result, err
	}
	return result, nil
}
