// Package auth implements the social-login flow: OAuth provider clients,
// session token issuance, and the CSRF state guard.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Profile is the provider-neutral result of a completed OAuth exchange.
// SocialID is the provider-scoped stable identifier; Name and Email are
// optional and left empty when the provider does not share them.
type Profile struct {
	Provider string
	SocialID string
	Name     string
	Email    string
}

// Provider is the common interface implemented by all OAuth providers.
type Provider interface {
	// Name returns the provider identifier used in routes and user rows.
	Name() string
	// AuthURL generates the provider consent-page URL for the given state.
	AuthURL(state string) string
	// Exchange trades an authorization code for a Profile: it exchanges the
	// code for an access token, then fetches the provider's profile endpoint
	// with it. The state is forwarded to providers that require it in the
	// token request (Naver).
	Exchange(ctx context.Context, code, state string) (*Profile, error)
}

func errInvalidProfile(provider string) error {
	return fmt.Errorf("%s profile response contained no user identifier", provider)
}

// exchangeCode performs the code-for-token exchange and rejects responses
// without an access token. Single-shot; no retry.
func exchangeCode(ctx context.Context, conf *oauth2.Config, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := conf.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}
	return token, nil
}

// fetchProfile GETs the provider profile endpoint as a bearer request and
// decodes the JSON payload into dest.
func fetchProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, url string, dest any) error {
	client := conf.Client(ctx, token)

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding profile response: %w", err)
	}
	return nil
}
