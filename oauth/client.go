package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the production authentication service root.
const DefaultBaseURL = "https://developer.api.autodesk.com"

// Authentication API paths. The refresh endpoint is distinct from the code
// exchange endpoint in the v1 API.
const (
	authenticatePath = "/authentication/v1/authenticate"
	authorizePath    = "/authentication/v1/authorize"
	getTokenPath     = "/authentication/v1/gettoken"
	refreshTokenPath = "/authentication/v1/refreshtoken"
	userProfilePath  = "/userprofile/v1/users/@me"
)

// Token is an issued access token.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string

	// ExpiresIn is the remaining validity at the time the call returned.
	// For cache hits this is recomputed from the entry's absolute expiry,
	// so repeated calls against the same entry see it shrink.
	ExpiresIn time.Duration
}

// cacheEntry is a resolved 2-legged token for one scope key. Entries are
// written only after a successful fetch and replaced, never mutated.
type cacheEntry struct {
	token     string
	tokenType string
	expiresAt time.Time
}

// Client talks to the authentication service. It owns the credentials and a
// process-lifetime, in-memory 2-legged token cache keyed by scope list.
// 3-legged operations are stateless pass-throughs with no caching.
//
// The cache is safe for concurrent use; concurrent Authenticate calls for
// the same scope key collapse into a single network request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	creds Credentials
	cache map[string]cacheEntry
	gen   uint64 // bumped on Reset; in-flight fetches from an older generation are not cached

	group singleflight.Group

	// now is the clock used for expiry bookkeeping. Tests override this
	// to avoid real waits.
	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all auth requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBaseURL overrides the authentication service root. Used by tests and
// non-production stacks.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates an authentication client. creds must be either
// ClientCredentials or a StaticToken; supplying neither is a configuration
// error reported synchronously.
func New(creds Credentials, opts ...Option) (*Client, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		creds:      creds,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Reset replaces the client's credentials and clears the token cache.
// Tokens minted by fetches still in flight at reset time are delivered to
// their awaiters but not cached.
func (c *Client) Reset(creds Credentials) error {
	if err := validateCredentials(creds); err != nil {
		return err
	}

	c.mu.Lock()
	c.creds = creds
	c.cache = make(map[string]cacheEntry)
	c.gen++
	c.mu.Unlock()

	c.logger.Info("credentials reset, token cache cleared")

	return nil
}

// scopeKey joins scopes in the order given. The key is deliberately
// order-sensitive: the same scopes in a different order are a separate
// cache entry, preserving the caching behavior callers observe. The joined
// form is also the scope string sent to the token endpoint.
func scopeKey(scopes []string) string {
	return strings.Join(scopes, " ")
}

// Authenticate returns a 2-legged (client credentials) access token for the
// given scopes.
//
// Tokens are cached per scope key until they expire. With force=false an
// unexpired cached token is returned with its remaining validity; concurrent
// calls for the same scope key while a fetch is in flight await that fetch
// rather than issuing duplicates, and all receive the same token or the same
// error. With force=true a new token request is always issued.
//
// A failed fetch writes nothing to the cache, so a subsequent call retries.
// Requires ClientCredentials; returns ErrNotAppClient for static-token
// clients.
func (c *Client) Authenticate(ctx context.Context, scopes []string, force bool) (*Token, error) {
	cc, gen, err := c.appCredentials()
	if err != nil {
		return nil, err
	}

	key := scopeKey(scopes)

	if force {
		return c.fetchAndStore(ctx, cc, gen, key)
	}

	if tok := c.cachedToken(key); tok != nil {
		c.logger.Debug("token cache hit",
			slog.String("scope", key),
			slog.Duration("remaining", tok.ExpiresIn),
		)

		return tok, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetchAndStore(ctx, cc, gen, key)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debug("joined in-flight token request", slog.String("scope", key))
	}

	// Copy so awaiters sharing the flight result cannot alias each other.
	tok := *(v.(*Token))

	return &tok, nil
}

// AccessToken resolves the authorization for one outbound request carrying
// the given scopes. It satisfies derivative.TokenSource.
func (c *Client) AccessToken(ctx context.Context, scopes []string) (string, error) {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	switch creds := creds.(type) {
	case ClientCredentials:
		tok, err := c.Authenticate(ctx, scopes, false)
		if err != nil {
			return "", err
		}

		return tok.AccessToken, nil
	case StaticToken:
		// Used as-is: no refresh is possible without a client secret.
		return string(creds), nil
	default:
		return "", ErrNoCredentials
	}
}

// appCredentials snapshots the ClientCredentials and cache generation under
// the lock. Static-token clients have no app identity to authenticate with.
func (c *Client) appCredentials() (ClientCredentials, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch creds := c.creds.(type) {
	case ClientCredentials:
		return creds, c.gen, nil
	case StaticToken:
		return ClientCredentials{}, 0, ErrNotAppClient
	default:
		return ClientCredentials{}, 0, ErrNoCredentials
	}
}

// cachedToken returns the unexpired cached token for key, with its remaining
// validity recomputed, or nil on miss or expiry.
func (c *Client) cachedToken(key string) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil
	}

	remaining := entry.expiresAt.Sub(c.now())
	if remaining <= 0 {
		return nil
	}

	return &Token{
		AccessToken: entry.token,
		TokenType:   entry.tokenType,
		ExpiresIn:   remaining,
	}
}

// fetchAndStore issues the client-credentials request and, on success,
// replaces the cache entry for key. gen guards against caching a token
// minted before a concurrent Reset.
func (c *Client) fetchAndStore(ctx context.Context, cc ClientCredentials, gen uint64, key string) (*Token, error) {
	c.logger.Info("requesting 2-legged token", slog.String("scope", key))

	form := url.Values{
		"client_id":     {cc.ClientID},
		"client_secret": {cc.ClientSecret},
		"grant_type":    {"client_credentials"},
		"scope":         {key},
	}

	tr, err := c.postForm(ctx, authenticatePath, form)
	if err != nil {
		c.logger.Warn("token request failed",
			slog.String("scope", key),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	expiresIn := time.Duration(tr.ExpiresIn) * time.Second

	c.mu.Lock()
	if gen == c.gen {
		c.cache[key] = cacheEntry{
			token:     tr.AccessToken,
			tokenType: tr.TokenType,
			expiresAt: c.now().Add(expiresIn),
		}
	}
	c.mu.Unlock()

	c.logger.Debug("2-legged token issued",
		slog.String("scope", key),
		slog.Duration("expires_in", expiresIn),
	)

	return &Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		ExpiresIn:   expiresIn,
	}, nil
}

// tokenResponse mirrors the token endpoint JSON exactly.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// postForm sends a form-encoded POST to an auth endpoint and decodes the
// token response. Non-2xx responses become *APIError.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth: creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("oauth: decoding token response: %w", err)
	}

	return &tr, nil
}
