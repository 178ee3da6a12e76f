package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// oauth2Config builds the x/oauth2 config for the authorize and code
// exchange endpoints. The v1 API expects client credentials in the request
// body, hence AuthStyleInParams.
func (c *Client) oauth2Config(cc ClientCredentials, redirectURI string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cc.ClientID,
		ClientSecret: cc.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.baseURL + authorizePath,
			TokenURL:  c.baseURL + getTokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizeURL returns the URL to redirect an end user to for the 3-legged
// authorization code flow. state is echoed back on the redirect for CSRF
// protection.
func (c *Client) AuthorizeURL(state, redirectURI string, scopes []string) (string, error) {
	cc, _, err := c.appCredentials()
	if err != nil {
		return "", err
	}

	return c.oauth2Config(cc, redirectURI, scopes).AuthCodeURL(state), nil
}

// ExchangeCode exchanges a 3-legged authorization code for tokens.
// Stateless pass-through, never cached: 3-legged tokens are user-specific
// and not safely cacheable at this layer.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	cc, _, err := c.appCredentials()
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauth2Config(cc, redirectURI, nil).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: code exchange: %w", err)
	}

	c.logger.Info("3-legged code exchanged")

	return fromOAuth2Token(tok, c.now()), nil
}

// RefreshToken exchanges a refresh token for a fresh 3-legged token pair.
// Direct POST rather than x/oauth2: the v1 refresh endpoint URL differs
// from the exchange endpoint, which a single oauth2.Endpoint cannot
// express. Stateless, never cached.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string, scopes []string) (*Token, error) {
	cc, _, err := c.appCredentials()
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"client_id":     {cc.ClientID},
		"client_secret": {cc.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if len(scopes) > 0 {
		form.Set("scope", scopeKey(scopes))
	}

	tr, err := c.postForm(ctx, refreshTokenPath, form)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}

// fromOAuth2Token converts an x/oauth2 token, translating its absolute
// expiry into remaining validity.
func fromOAuth2Token(t *oauth2.Token, now time.Time) *Token {
	tok := &Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}

	if !t.Expiry.IsZero() {
		tok.ExpiresIn = t.Expiry.Sub(now)
	}

	return tok
}

// UserProfile is the profile of the end user a 3-legged token belongs to.
type UserProfile struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	EmailID   string `json:"emailId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// GetUserProfile fetches the profile of the user an access token was issued
// to. The token must be 3-legged; 2-legged tokens have no user.
func (c *Client) GetUserProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userProfilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: profile request: %w", err)
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

	var profile UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("oauth: decoding profile response: %w", err)
	}

	return &profile, nil
}
