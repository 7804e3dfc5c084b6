package auth

import (
	"context"
	"strconv"

	"banana/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/kakao"
)

const kakaoProfileURL = "https://kapi.kakao.com/v2/user/me"

// kakaoUser is the portion of the Kakao /v2/user/me response we care about.
// The numeric id is always present; nickname and email live under the
// kakao_account envelope and depend on the consent items the user granted.
type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// KakaoProvider implements the Kakao Authorization Code flow.
type KakaoProvider struct {
	conf       *oauth2.Config
	profileURL string
}

// NewKakaoProvider creates a KakaoProvider with the given credentials.
func NewKakaoProvider(clientID, clientSecret, redirectURI string) *KakaoProvider {
	return &KakaoProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     kakao.Endpoint,
		},
		profileURL: kakaoProfileURL,
	}
}

func (p *KakaoProvider) Name() string { return models.ProviderKakao }

func (p *KakaoProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *KakaoProvider) Exchange(ctx context.Context, code, _ string) (*Profile, error) {
	token, err := exchangeCode(ctx, p.conf, code)
	if err != nil {
		return nil, err
	}

	var user kakaoUser
	if err := fetchProfile(ctx, p.conf, token, p.profileURL, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errInvalidProfile(models.ProviderKakao)
	}

	return &Profile{
		Provider: models.ProviderKakao,
		SocialID: strconv.FormatInt(user.ID, 10),
		Name:     user.KakaoAccount.Profile.Nickname,
		Email:    user.KakaoAccount.Email,
	}, nil
}
