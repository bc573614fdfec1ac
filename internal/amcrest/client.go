package amcrest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/icholy/digest"
)

// Request constants.
const (
	// defaultRequestTimeout bounds one-shot CGI queries. The event stream
	// uses its own client without a whole-request timeout.
	defaultRequestTimeout = 15 * time.Second

	// maxResponseSize caps one-shot CGI responses. The largest expected
	// payload (storage device info) is a few KB.
	maxResponseSize = 256 << 10
)

// Config contains camera connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Client talks to an Amcrest camera's CGI endpoints using HTTP digest
// authentication.
//
// It exposes only what the bridge consumes: static descriptor fields,
// an on-demand storage query, and the blocking event stream.
//
// Thread Safety:
//   - All methods are safe for concurrent use; the underlying HTTP
//     transport is shared and connection-pooled.
type Client struct {
	host    string
	baseURL string

	// queryClient serves one-shot CGI queries with a request timeout.
	queryClient *http.Client

	// streamClient serves the long-lived event stream attach; it carries
	// no whole-request timeout because the response body never ends.
	streamClient *http.Client
}

// New creates a camera client. No I/O happens until the first query.
func New(cfg Config) *Client {
	transport := &digest.Transport{
		Username: cfg.Username,
		Password: cfg.Password,
	}

	return &Client{
		host:    cfg.Host,
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		queryClient: &http.Client{
			Transport: transport,
			Timeout:   defaultRequestTimeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// Host returns the configured camera host.
func (c *Client) Host() string {
	return c.host
}

// DeviceType returns the camera model identifier (e.g. "AD410").
func (c *Client) DeviceType(ctx context.Context) (string, error) {
	return c.magicBox(ctx, "getDeviceType", "type")
}

// SerialNumber returns the camera's stable serial number.
func (c *Client) SerialNumber(ctx context.Context) (string, error) {
	return c.magicBox(ctx, "getSerialNo", "sn")
}

// SoftwareVersion returns the camera firmware version string.
func (c *Client) SoftwareVersion(ctx context.Context) (string, error) {
	return c.magicBox(ctx, "getSoftwareVersion", "version")
}

// DisplayName returns the camera's human-readable machine name.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	return c.magicBox(ctx, "getMachineName", "name")
}

// magicBox issues a magicBox.cgi query and strips the "key=" prefix from
// the first response line.
func (c *Client) magicBox(ctx context.Context, action, key string) (string, error) {
	body, err := c.get(ctx, "/cgi-bin/magicBox.cgi", url.Values{"action": {action}})
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(body, "\n")
	line = strings.TrimSpace(line)
	value, found := strings.CutPrefix(line, key+"=")
	if !found {
		return "", fmt.Errorf("%w: magicBox %s returned %q", ErrBadResponse, action, line)
	}
	return strings.TrimSpace(value), nil
}

// get performs one authenticated CGI request and returns the body as text.
func (c *Client) get(ctx context.Context, path string, query url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrUnavailable, err)
	}

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, path)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s returned HTTP %d", ErrUnavailable, path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}
	return string(data), nil
}
