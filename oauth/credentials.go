package oauth

import "errors"

// Configuration errors, raised synchronously at construction or reset time.
var (
	// ErrNoCredentials is returned when a client is constructed without any
	// credential mode.
	ErrNoCredentials = errors.New("oauth: no credentials supplied")

	// ErrNotAppClient is returned when a 2-legged or 3-legged operation that
	// needs an app identity is called on a client holding only a static
	// bearer token.
	ErrNotAppClient = errors.New("oauth: operation requires client credentials, not a static token")
)

// Credentials is the credential mode of a client. Exactly two
// implementations exist: ClientCredentials and StaticToken. The interface is
// sealed so every use site can switch exhaustively over the two variants.
type Credentials interface {
	credentials()
	valid() bool
}

// ClientCredentials is an app identity (client ID + secret). Clients built
// with it can mint and refresh 2-legged tokens and drive 3-legged flows.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (ClientCredentials) credentials() {}

func (c ClientCredentials) valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// StaticToken is a pre-issued bearer token. It is used as-is on every
// request: with no client secret to refresh from, expiry surfaces to the
// caller as 401 responses from the resource API.
type StaticToken string

func (StaticToken) credentials() {}

func (t StaticToken) valid() bool {
	return t != ""
}

// validateCredentials checks that exactly one usable credential mode was
// supplied. Shared by New and Reset.
func validateCredentials(creds Credentials) error {
	if creds == nil || !creds.valid() {
		return ErrNoCredentials
	}

	return nil
}
