package auth

import (
	"context"

	"banana/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleProfileURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleUser is the portion of the Google userinfo response we care about.
type googleUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GoogleProvider implements the Google Authorization Code flow.
type GoogleProvider struct {
	conf       *oauth2.Config
	profileURL string
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
func NewGoogleProvider(clientID, clientSecret, redirectURI string) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		profileURL: googleProfileURL,
	}
}

func (p *GoogleProvider) Name() string { return models.ProviderGoogle }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, _ string) (*Profile, error) {
	token, err := exchangeCode(ctx, p.conf, code)
	if err != nil {
		return nil, err
	}

	var user googleUser
	if err := fetchProfile(ctx, p.conf, token, p.profileURL, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errInvalidProfile(models.ProviderGoogle)
	}

	return &Profile{
		Provider: models.ProviderGoogle,
		SocialID: user.ID,
		Name:     user.Name,
		Email:    user.Email,
	}, nil
}
