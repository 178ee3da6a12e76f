package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testCreds = ClientCredentials{ClientID: "id", ClientSecret: "secret"}

// newTestClient builds a client against srv with a controllable clock.
func newTestClient(t *testing.T, url string, creds Credentials) (*Client, *time.Time) {
	t.Helper()

	c, err := New(creds, WithBaseURL(url))
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }

	return c, &now
}

// tokenServer answers the authenticate endpoint with sequential token
// values and counts requests.
func tokenServer(t *testing.T, expiresIn int64, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/authentication/v1/authenticate", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func TestNew_NoCredentials(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(ClientCredentials{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(ClientCredentials{ClientID: "id"})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(StaticToken(""))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestAuthenticate_CachesPerScopeKey(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	first, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	second, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int64(1), calls.Load())
}

func TestAuthenticate_RemainingValidityShrinks(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, now := newTestClient(t, srv.URL, testCreds)

	first, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3600*time.Second, first.ExpiresIn)

	*now = now.Add(100 * time.Second)

	second, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)
	assert.Equal(t, 3500*time.Second, second.ExpiresIn)
	assert.LessOrEqual(t, second.ExpiresIn, first.ExpiresIn)
	assert.Equal(t, int64(1), calls.Load())
}

func TestAuthenticate_ExpiredEntryRefetches(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 60, &calls)
	defer srv.Close()

	client, now := newTestClient(t, srv.URL, testCreds)

	first, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	*now = now.Add(61 * time.Second)

	second, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int64(2), calls.Load())
}

func TestAuthenticate_ForceAlwaysFetches(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	_, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background(), []string{"data:read"}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestAuthenticate_ScopeKeyIsOrderSensitive(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	_, err := client.Authenticate(context.Background(), []string{"data:read", "data:write"}, false)
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background(), []string{"data:write", "data:read"}, false)
	require.NoError(t, err)

	// Different order, different cache entry.
	assert.Equal(t, int64(2), calls.Load())
}

func TestAuthenticate_ConcurrentCallsCollapse(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		// Hold the response open long enough for the other callers to join
		// the in-flight request.
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"shared","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			tok, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
			if err != nil {
				return err
			}

			assert.Equal(t, "shared", tok.AccessToken)

			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), calls.Load())
}

func TestAuthenticate_FailureIsNotCached(t *testing.T) {
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"developerMessage":"bad secret"}`, http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"recovered","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	_, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// The failed fetch left no cache entry, so a plain retry succeeds
	// without force.
	tok, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)
	assert.Equal(t, "recovered", tok.AccessToken)
}

func TestAuthenticate_StaticTokenRejected(t *testing.T) {
	client, _ := newTestClient(t, "http://unused.invalid", StaticToken("abc"))

	_, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	assert.ErrorIs(t, err, ErrNotAppClient)
}

func TestAccessToken_ClientCredentials(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	tok, err := client.AccessToken(context.Background(), []string{"data:read"})
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// Second resolution is served from cache.
	tok, err = client.AccessToken(context.Background(), []string{"data:read"})
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int64(1), calls.Load())
}

func TestAccessToken_StaticPassThrough(t *testing.T) {
	client, _ := newTestClient(t, "http://unused.invalid", StaticToken("fixed-token"))

	tok, err := client.AccessToken(context.Background(), []string{"data:read"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", tok)
}

func TestReset_ClearsCache(t *testing.T) {
	var calls atomic.Int64
	srv := tokenServer(t, 3600, &calls)
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, testCreds)

	_, err := client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	require.NoError(t, client.Reset(testCreds))

	_, err = client.Authenticate(context.Background(), []string{"data:read"}, false)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestReset_ValidatesCredentials(t *testing.T) {
	client, _ := newTestClient(t, "http://unused.invalid", testCreds)

	assert.ErrorIs(t, client.Reset(nil), ErrNoCredentials)
	assert.ErrorIs(t, client.Reset(StaticToken("")), ErrNoCredentials)

	// Switching mode is allowed.
	require.NoError(t, client.Reset(StaticToken("new-token")))

	tok, err := client.AccessToken(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "new-token", tok)
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "", scopeKey(nil))
	assert.Equal(t, "data:read", scopeKey([]string{"data:read"}))
	assert.Equal(t, "data:read data:write", scopeKey([]string{"data:read", "data:write"}))
}
