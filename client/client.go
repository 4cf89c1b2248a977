// Package client implements the base HTTP collaborator of the SDK: request
// issuing with retries for transient transport errors, API URL templating,
// and translation of non-success responses into typed errors.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Client issues authenticated requests against one Egnyte domain.
// It is safe for concurrent use.
type Client struct {
	httpClient *retryablehttp.Client
	config     Config
	logger     log.Logger
}

// New creates a Client for the given configuration. The retrying HTTP client
// only retries transient transport errors; protocol-level retries (chunk
// checksum mismatches) are handled by the transfer engine.
func New(config Config, logger log.Logger) *Client {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	return &Client{
		httpClient: retryhttp.NewClient(logger),
		config:     config,
		logger:     logger,
	}
}

// Config returns the configuration the client was created with.
func (c *Client) Config() Config {
	return c.config
}

// Logger returns the logger the client was created with.
func (c *Client) Logger() log.Logger {
	return c.logger
}

// StandardClient exposes the retrying HTTP client as a plain *http.Client.
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}

// RequestHeaders returns the headers attached to every API request.
func (c *Client) RequestHeaders() map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", string(c.config.AccessToken)),
		"User-Agent":    c.config.UserAgent,
	}
}

// URL renders an absolute API URL from a printf-style path template rooted at
// the configured domain. Path arguments are escaped segment by segment, so
// "/Shared/a b.txt" templates into "/Shared/a%20b.txt".
func (c *Client) URL(template string, pathArgs ...string) string {
	escaped := make([]interface{}, len(pathArgs))
	for i, arg := range pathArgs {
		escaped[i] = escapePath(arg)
	}
	return fmt.Sprintf("%s/%s", c.baseURL(), fmt.Sprintf(template, escaped...))
}

func (c *Client) baseURL() string {
	domain := strings.TrimSuffix(c.config.Domain, "/")
	if !strings.Contains(domain, "://") {
		return "https://" + domain
	}
	return domain
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// Do issues a single API request. body accepts the types understood by
// retryablehttp (nil, []byte, io.ReadSeeker, ...); a seekable body is rewound
// by the HTTP client if a transport-level retry happens. Pass a negative
// contentLength when the length is unknown or there is no body.
// The caller owns the returned response and must close its body.
func (c *Client) Do(ctx context.Context, method, requestURL string, body interface{}, contentLength int64, headers map[string]string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, value := range c.RequestHeaders() {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if contentLength >= 0 {
		// Add Content-Length header manually because retryablehttp doesn't do
		// it automatically for streamed bodies
		req.Header.Set("Content-Length", strconv.FormatInt(contentLength, 10))
		req.ContentLength = contentLength
	}

	c.logger.Debugf("%s %s", method, requestURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, requestURL, err)
	}
	return resp, nil
}

// GetJSON issues a GET and decodes the JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, requestURL string, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, requestURL, nil, -1, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("close response body: %s", err)
		}
	}()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostJSON issues a POST with a JSON-encoded body. The caller checks the
// response status and closes the body.
func (c *Client) PostJSON(ctx context.Context, requestURL string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return c.Do(ctx, http.MethodPost, requestURL, payload, int64(len(payload)), headers)
}

// Delete issues a DELETE and checks the response status.
func (c *Client) Delete(ctx context.Context, requestURL string) error {
	resp, err := c.Do(ctx, http.MethodDelete, requestURL, nil, -1, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("close response body: %s", err)
		}
	}()
	return CheckResponse(resp)
}
