package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	// Out-of-band redirect: Google shows the authorization code for the user
	// to paste back into the terminal.
	oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"
)

// Authenticator runs the Google OAuth authorization-code flow for the
// terminal: print the login URL, read the pasted code, exchange it for a
// token and resolve the user's profile.
type Authenticator struct {
	conf        *oauth2.Config
	http        *resty.Client
	userInfoURL string
}

// NewAuthenticator builds an authenticator from the configured client
// credentials.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  oobRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
		},
		http:        resty.New(),
		userInfoURL: googleUserInfoURL,
	}
}

// LoginURL returns the authorization URL with a fresh CSRF state nonce.
func (a *Authenticator) LoginURL() (loginURL, state string, err error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	state = hex.EncodeToString(nonce)
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline), state, nil
}

// Exchange trades the pasted authorization code for an access token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (string, error) {
	token, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange failed: %v", errNetwork, err)
	}
	return token.AccessToken, nil
}

// googleUserInfo is the subset of the userinfo response we keep.
type googleUserInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// FetchUserInfo resolves the user's profile with a bearer-token call. A
// successful response implies the token is valid.
func (a *Authenticator) FetchUserInfo(ctx context.Context, accessToken string) (UserIdentity, error) {
	res, err := a.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		Get(a.userInfoURL)
	if err != nil {
		return UserIdentity{}, fmt.Errorf("%w: userinfo request failed: %v", errNetwork, err)
	}
	if res.StatusCode() != 200 {
		return UserIdentity{}, fmt.Errorf("%w: invalid token (userinfo status %d)", errBackend, res.StatusCode())
	}

	var info googleUserInfo
	if err := json.Unmarshal(res.Body(), &info); err != nil {
		return UserIdentity{}, fmt.Errorf("%w: malformed userinfo response: %v", errBackend, err)
	}
	if info.Email == "" {
		return UserIdentity{}, fmt.Errorf("%w: userinfo response carried no email", errBackend)
	}

	return UserIdentity{
		Name:       info.Name,
		Email:      info.Email,
		PictureURL: info.Picture,
		Token:      accessToken,
	}, nil
}

// Login runs the whole interactive flow and returns the authenticated user.
func (a *Authenticator) Login(ctx context.Context) (UserIdentity, error) {
	loginURL, _, err := a.LoginURL()
	if err != nil {
		return UserIdentity{}, err
	}

	fmt.Printf("Visit this URL to authorize scrapeview:\n\n%s\n\n", loginURL)
	fmt.Print("Paste the authorization code here: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil || code == "" {
		return UserIdentity{}, fmt.Errorf("%w: no authorization code entered", errValidation)
	}

	accessToken, err := a.Exchange(ctx, code)
	if err != nil {
		return UserIdentity{}, err
	}

	identity, err := a.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return UserIdentity{}, err
	}

	slog.Debug("OAuth flow complete", "email", identity.Email)
	return identity, nil
}
