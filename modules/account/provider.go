package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrInvalidCode   = errors.New("account: invalid authorization code")
	ErrProfileFailed = errors.New("account: failed to fetch user profile")
	ErrNoSubject     = errors.New("account: identity provider returned no user id")
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuthConfig describes the identity provider. With Provider set to
// "google" the endpoints default to Google's.
type OAuthConfig struct {
	Provider     string   `env:"OAUTH_PROVIDER" envDefault:"google"`
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8080/sign-in/callback"`
	AuthURL      string   `env:"OAUTH_AUTH_URL"`
	TokenURL     string   `env:"OAUTH_TOKEN_URL"`
	UserInfoURL  string   `env:"OAUTH_USERINFO_URL"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

// Enabled reports whether a client is configured.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != ""
}

// Profile is what the service keeps of the provider's user.
type Profile struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

// Provider runs the authorization-code exchange with one identity provider.
type Provider interface {
	AuthURL(state string) string
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

type oauthProvider struct {
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider builds a Provider over an OpenID Connect style userinfo
// endpoint.
func NewProvider(cfg OAuthConfig) Provider {
	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	userInfo := cfg.UserInfoURL
	if cfg.Provider == "google" {
		if endpoint.AuthURL == "" {
			endpoint = google.Endpoint
		}
		if userInfo == "" {
			userInfo = googleUserInfoURL
		}
	}
	return &oauthProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfo,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *oauthProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *oauthProvider) ResolveProfile(ctx context.Context, code string) (Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Profile{}, errors.Join(ErrInvalidCode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, errors.Join(ErrProfileFailed, err)
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, errors.Join(ErrProfileFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Profile{}, fmt.Errorf("%w: userinfo returned status %d", ErrProfileFailed, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, errors.Join(ErrProfileFailed, err)
	}
	id := info.Sub
	if id == "" {
		id = info.ID
	}
	if id == "" {
		return Profile{}, ErrNoSubject
	}
	return Profile{
		ExternalID: id,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}

// userInfo accepts both OIDC ("sub") and legacy ("id") user ids.
type userInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var _ Provider = (*oauthProvider)(nil)
