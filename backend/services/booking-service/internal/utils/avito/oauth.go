package avito

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const DefaultAuthURL = "https://avito.ru/oauth"

// Scopes requested when an owner connects their account.
var DefaultScopes = []string{
	"user:read",
	"items:info",
	"short_term_rent:read",
	"short_term_rent:write",
}

// NewOAuthConfig builds the authorization-code config. Avito wants client
// credentials in the form body rather than basic auth.
func NewOAuthConfig(clientID, clientSecret, apiBaseURL, authURL, redirectURL string) *oauth2.Config {
	if apiBaseURL == "" {
		apiBaseURL = DefaultBaseURL
	}
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  strings.TrimRight(apiBaseURL, "/") + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      DefaultScopes,
	}
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

// AuthCodeURL is where the owner is redirected to grant access.
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("avito code exchange: %w", err)
	}
	return tok, nil
}

// Refresh forces a refresh_token grant.
func (c *Client) Refresh(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error) {
	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	}
	tok, err := cfg.TokenSource(c.oauthContext(ctx), stale).Token()
	if err != nil {
		return nil, fmt.Errorf("avito token refresh: %w", err)
	}
	return tok, nil
}
