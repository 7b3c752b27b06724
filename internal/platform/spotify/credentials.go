package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// ErrAuthFailure is returned when the token endpoint does not yield a usable token.
var ErrAuthFailure = errors.New("spotify: credential exchange failed")

// Credentials obtains bearer tokens through the client-credentials grant.
// Every call to Obtain performs one exchange; there is no caching beyond
// remembering the last token for request building.
type Credentials struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	token      *oauth2.Token
}

func NewCredentials(clientID, clientSecret, tokenURL string, httpClient *http.Client) *Credentials {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &Credentials{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
	}
}

func (c *Credentials) Obtain(ctx context.Context) (*oauth2.Token, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuthFailure)
	}
	c.token = tok
	return tok, nil
}

// Bearer returns the Authorization header value for the last obtained token,
// or an empty string if none has been obtained yet.
func (c *Credentials) Bearer() string {
	if c.token == nil {
		return ""
	}
	return c.token.Type() + " " + c.token.AccessToken
}
