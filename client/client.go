package client

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
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/types"

	"github.com/pkg/errors"
)

// ErrAPIUnavailable .
var ErrAPIUnavailable = errors.New("logview api unavailable")

// Client talks to a running logview daemon
type Client struct {
	base *url.URL
	http *http.Client
}

// New accepts host:port or a full base url
func New(addr string, timeout time.Duration) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	base, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{base: base, http: &http.Client{Timeout: timeout}}, nil
}

type result struct {
	Content    string `json:"content"`
	Generation uint64 `json:"generation"`
	Refreshed  bool   `json:"refreshed"`
	Error      string `json:"error"`
}

// Log returns the current content, the last n lines when n > 0
func (c *Client) Log(ctx context.Context, n int) (string, error) {
	values := url.Values{}
	if n > 0 {
		values.Set("lines", strconv.Itoa(n))
	}
	resp, err := c.do(ctx, http.MethodGet, "/log/", values)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", errors.Errorf("api log returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

// Refresh asks the daemon to poll now and returns the content
func (c *Client) Refresh(ctx context.Context) (string, error) {
	r, _, err := c.call(ctx, http.MethodPost, "/log/refresh/")
	if err != nil {
		return "", err
	}
	return r.Content, nil
}

// Clear clears the log, the error carries the daemon's message on failure
func (c *Client) Clear(ctx context.Context) (string, error) {
	r, code, err := c.call(ctx, http.MethodPost, "/log/clear/")
	if err != nil && code == http.StatusInternalServerError {
		reason := strings.TrimPrefix(r.Error, common.ErrClearFailed.Error()+": ")
		return "", fmt.Errorf("%w: %s", common.ErrClearFailed, reason)
	}
	if err != nil {
		return "", err
	}
	return r.Content, nil
}

// Status .
func (c *Client) Status(ctx context.Context) (*types.Status, error) {
	resp, err := c.do(ctx, http.MethodGet, "/log/status/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("api status returned status %d", resp.StatusCode)
	}
	status := &types.Status{}
	return status, json.NewDecoder(resp.Body).Decode(status)
}

func (c *Client) call(ctx context.Context, method, path string) (result, int, error) {
	var r result
	resp, err := c.do(ctx, method, path, nil)
	if err != nil {
		return r, 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return r, resp.StatusCode, errors.Wrapf(err, "decode %s", path)
	}
	if resp.StatusCode >= 400 {
		return r, resp.StatusCode, errors.Errorf("api %s returned status %d: %s", path, resp.StatusCode, r.Error)
	}
	return r, resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values) (*http.Response, error) {
	if c == nil {
		return nil, ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// IsUnavailable tells if err means the daemon could not be reached
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
