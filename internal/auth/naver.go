package auth

import (
	"context"

	"banana/internal/models"

	"golang.org/x/oauth2"
)

const naverProfileURL = "https://openapi.naver.com/v1/nid/me"

// naverEndpoint is not covered by the x/oauth2 endpoint catalog.
var naverEndpoint = oauth2.Endpoint{
	AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
	TokenURL:  "https://nid.naver.com/oauth2.0/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// naverUser models the /v1/nid/me payload: the profile fields arrive wrapped
// in a "response" envelope next to a resultcode/message pair.
type naverUser struct {
	Response struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"response"`
}

// NaverProvider implements the Naver Authorization Code flow. Naver expects
// the CSRF state to be echoed in the token request as well.
type NaverProvider struct {
	conf       *oauth2.Config
	profileURL string
}

// NewNaverProvider creates a NaverProvider with the given credentials.
func NewNaverProvider(clientID, clientSecret, redirectURI string) *NaverProvider {
	return &NaverProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     naverEndpoint,
		},
		profileURL: naverProfileURL,
	}
}

func (p *NaverProvider) Name() string { return models.ProviderNaver }

func (p *NaverProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *NaverProvider) Exchange(ctx context.Context, code, state string) (*Profile, error) {
	token, err := exchangeCode(ctx, p.conf, code, oauth2.SetAuthURLParam("state", state))
	if err != nil {
		return nil, err
	}

	var user naverUser
	if err := fetchProfile(ctx, p.conf, token, p.profileURL, &user); err != nil {
		return nil, err
	}
	if user.Response.ID == "" {
		return nil, errInvalidProfile(models.ProviderNaver)
	}

	return &Profile{
		Provider: models.ProviderNaver,
		SocialID: user.Response.ID,
		Name:     user.Response.Name,
		Email:    user.Response.Email,
	}, nil
}
