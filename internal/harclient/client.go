package harclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 1024

// Client is a BrowserMob REST API client.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the API at addr (host:port). A nil httpClient
// uses a pooled client from go-cleanhttp.
func New(addr string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse("http://" + addr)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid proxy API address %q", addr)
	}
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	return &Client{base: base, http: httpClient}, nil
}

// HAROptions selects what a HAR records.
type HAROptions struct {
	InitialPageRef   string
	InitialPageTitle string
	CaptureHeaders   bool
	CaptureContent   bool
	CaptureBinary    bool
}

func (o HAROptions) values() url.Values {
	v := url.Values{}
	if o.InitialPageRef != "" {
		v.Set("initialPageRef", o.InitialPageRef)
	}
	if o.InitialPageTitle != "" {
		v.Set("initialPageTitle", o.InitialPageTitle)
	}
	v.Set("captureHeaders", strconv.FormatBool(o.CaptureHeaders))
	v.Set("captureContent", strconv.FormatBool(o.CaptureContent))
	v.Set("captureBinaryContent", strconv.FormatBool(o.CaptureBinary))
	return v
}

// CreateProxy opens a new proxy port and returns it.
func (c *Client) CreateProxy(ctx context.Context) (int, error) {
	var out struct {
		Port int `json:"port"`
	}
	if err := c.do(ctx, http.MethodPost, "/proxy", nil, &out); err != nil {
		return 0, fmt.Errorf("create proxy: %w", err)
	}
	if out.Port == 0 {
		return 0, fmt.Errorf("create proxy: response carried no port")
	}
	return out.Port, nil
}

// ProxyAddress returns the address browsers should use for proxy port.
func (c *Client) ProxyAddress(port int) string {
	return net.JoinHostPort(c.base.Hostname(), strconv.Itoa(port))
}

// StartHAR begins recording a new HAR on port, discarding any previous one.
func (c *Client) StartHAR(ctx context.Context, port int, opts HAROptions) error {
	if err := c.do(ctx, http.MethodPut, proxyPath(port, "har"), opts.values(), nil); err != nil {
		return fmt.Errorf("start HAR on proxy %d: %w", port, err)
	}
	return nil
}

// NewPage starts a new page in the HAR being recorded on port.
func (c *Client) NewPage(ctx context.Context, port int, ref, title string) error {
	v := url.Values{"pageRef": {ref}}
	if title != "" {
		v.Set("pageTitle", title)
	}
	if err := c.do(ctx, http.MethodPut, proxyPath(port, "har", "pageRef"), v, nil); err != nil {
		return fmt.Errorf("new HAR page on proxy %d: %w", port, err)
	}
	return nil
}

// HAR fetches the HAR recorded on port so far.
func (c *Client) HAR(ctx context.Context, port int) (*HAR, error) {
	var out HAR
	if err := c.do(ctx, http.MethodGet, proxyPath(port, "har"), nil, &out); err != nil {
		return nil, fmt.Errorf("get HAR from proxy %d: %w", port, err)
	}
	return &out, nil
}

// CloseProxy shuts proxy port down.
func (c *Client) CloseProxy(ctx context.Context, port int) error {
	if err := c.do(ctx, http.MethodDelete, proxyPath(port), nil, nil); err != nil {
		return fmt.Errorf("close proxy %d: %w", port, err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func proxyPath(port int, parts ...string) string {
	return "/" + strings.Join(append([]string{"proxy", strconv.Itoa(port)}, parts...), "/")
}

// do sends form as an urlencoded body and decodes a JSON response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	u := c.base.JoinPath(path)
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
