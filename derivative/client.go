package derivative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://developer.api.autodesk.com"

const (
	// pollDelay is the fixed wait between 202 poll attempts. There is no
	// backoff growth and no attempt cap: a caller that needs a bounded wait
	// passes a context with a deadline.
	pollDelay = 5 * time.Second

	userAgent = "forge-go/0.1"
)

// Scopes requested per operation class.
var (
	scopeRead  = []string{"data:read"}
	scopeWrite = []string{"data:read", "data:write", "data:create"}
)

// Region selects the data residency for translation output and routes
// requests to the matching regional endpoint.
type Region string

const (
	RegionUS   Region = "US"
	RegionEMEA Region = "EMEA"
)

// basePath returns the versioned design-data root path for the region.
func (r Region) basePath() string {
	if r == RegionEMEA {
		return "/modelderivative/v2/regions/eu/designdata"
	}

	return "/modelderivative/v2/designdata"
}

// TokenSource provides bearer tokens for outbound requests. Defined at the
// consumer per Go convention "accept interfaces, return structs"; the oauth
// package provides the real implementations (cached client-credentials
// tokens or a static token).
type TokenSource interface {
	AccessToken(ctx context.Context, scopes []string) (string, error)
}

// Client is an HTTP client for the Model Derivative API. It resolves
// authorization per request through its TokenSource and implements the
// 202-accepted poll and chunked range download behaviors.
//
// Client adds no locking of its own; sharing one instance across goroutines
// relies on net/http connection pooling.
type Client struct {
	baseURL    string
	region     Region
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	// sleepFunc is called to wait between 202 polls. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRegion routes requests through the given regional endpoint.
func WithRegion(r Region) ClientOption {
	return func(c *Client) { c.region = r }
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithBaseURL overrides the API root. Used by tests and non-production
// stacks.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// NewClient creates a Model Derivative API client.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		region:     RegionUS,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		logger:     slog.Default(),
		sleepFunc:  timeSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// path joins the regional design-data root with a sub-path.
func (c *Client) path(sub string) string {
	return c.region.basePath() + sub
}

// requestOpts carries the per-request knobs for do.
type requestOpts struct {
	headers     map[string]string
	contentType string
	body        []byte

	// pollAccepted repeats the request after a fixed delay while the server
	// answers 202 (resource still being computed). Only meaningful for
	// bodyless GETs.
	pollAccepted bool
}

// do executes an authenticated request against the API. Authorization is
// resolved fresh on every attempt, including each 202 poll iteration. The
// caller is responsible for closing the response body on success.
func (c *Client) do(ctx context.Context, method, path string, scopes []string, ro requestOpts) (*http.Response, error) {
	url := c.baseURL + path

	for {
		tok, err := c.tokens.AccessToken(ctx, scopes)
		if err != nil {
			return nil, fmt.Errorf("derivative: resolving authorization: %w", err)
		}

		var body io.Reader
		if ro.body != nil {
			body = bytes.NewReader(ro.body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("derivative: creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("User-Agent", userAgent)

		if ro.contentType != "" {
			req.Header.Set("Content-Type", ro.contentType)
		}

		for k, v := range ro.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("derivative: %s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusAccepted && ro.pollAccepted {
			resp.Body.Close()
			c.logger.Debug("resource still processing, polling again",
				slog.String("method", method),
				slog.String("path", path),
				slog.Duration("delay", pollDelay),
			)

			if sleepErr := c.sleepFunc(ctx, pollDelay); sleepErr != nil {
				return nil, fmt.Errorf("derivative: poll canceled: %w", sleepErr)
			}

			continue
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			RequestID:  resp.Header.Get("x-ads-request-id"),
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}
}

// getJSON issues a GET and decodes the JSON response body into v.
func (c *Client) getJSON(ctx context.Context, path string, scopes []string, poll bool, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, scopes, requestOpts{pollAccepted: poll})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("derivative: decoding response: %w", err)
	}

	return nil
}

// getBuffer issues a GET and returns the whole response body.
func (c *Client) getBuffer(ctx context.Context, path string, scopes []string, poll bool) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, scopes, requestOpts{pollAccepted: poll})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("derivative: reading response body: %w", err)
	}

	return buf, nil
}

// postJSON marshals body, issues a POST, and decodes the response into v.
func (c *Client) postJSON(ctx context.Context, path string, scopes []string, headers map[string]string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("derivative: encoding request body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, scopes, requestOpts{
		headers:     headers,
		contentType: "application/json",
		body:        payload,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("derivative: decoding response: %w", err)
	}

	return nil
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
