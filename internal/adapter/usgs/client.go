package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
)

var errBodyTooLarge = errors.New("response body exceeds size limit")

// Client fetches raw GeoJSON documents from the USGS event service.
// It implements pipeline.Fetcher.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	logger     *slog.Logger
}

// NewClient creates a client whose connections time out after connectTimeout
// while dialing and after readTimeout while waiting on the server, both for the
// response headers and for each read of the body.
func NewClient(connectTimeout, readTimeout time.Duration, maxBytes int64, userAgent string, logger *slog.Logger) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readDeadlineConn{Conn: conn, timeout: readTimeout}, nil
		},
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		// One request per connection: the connection is closed with the body.
		DisableKeepAlives: true,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Fetch issues a single GET to endpoint and returns the body of a 200 response.
// Failures are *domain.LoadError values: FailureInvalidURL for a malformed
// endpoint, FailureBadStatus for any non-200 status, FailureIO for everything
// on the wire. There are no retries.
func (c *Client) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.FailureInvalidURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.FailureInvalidURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json;q=0.9, */*;q=0.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.FailureIO, Err: fmt.Errorf("usgs request: %w", err)}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body failed", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.LoadError{Kind: domain.FailureBadStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.FailureIO, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &domain.LoadError{Kind: domain.FailureIO, Err: errBodyTooLarge}
	}
	return body, nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

// readDeadlineConn pushes the read deadline forward before every read, giving
// the connection a per-read timeout rather than a whole-response one.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}
