package install

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/giantswarm/browserenv/internal/fileutil"
)

// Download retry policy.
const (
	downloadRetryMax     = 4
	downloadRetryWaitMin = 500 * time.Millisecond
	downloadRetryWaitMax = 10 * time.Second
)

// NewHTTPClient returns the retrying client used for downloads, logging
// retries through logger.
func NewHTTPClient(logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = downloadRetryMax
	c.RetryWaitMin = downloadRetryWaitMin
	c.RetryWaitMax = downloadRetryWaitMax
	if logger != nil {
		c.Logger = logger
	}
	return c
}

// download writes the body of url to dst atomically.
func download(ctx context.Context, client *retryablehttp.Client, url, dst string) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	n, err := fileutil.WriteAtomic(dst, resp.Body, 0o644)
	if err != nil {
		return n, fmt.Errorf("save %s: %w", url, err)
	}
	return n, nil
}
