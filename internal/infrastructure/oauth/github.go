// Package oauth talks to GitHub's OAuth2 endpoints on behalf of the github
// strategy: it builds the authorize URL, exchanges the callback code and reads
// the user's profile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/storefront/sessions-api/internal/core/ports"
)

const (
	defaultAPIURL   = "https://api.github.com"
	exchangeTimeout = 10 * time.Second
)

// GithubConfig holds the OAuth app credentials. AuthURL, TokenURL and APIURL
// default to GitHub's public endpoints.
type GithubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	AuthURL      string
	TokenURL     string
	APIURL       string
}

// GithubProvider performs the authorization-code flow against GitHub.
type GithubProvider struct {
	oauth  oauth2.Config
	apiURL string
}

func NewGithubProvider(cfg GithubConfig) *GithubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &GithubProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		apiURL: strings.TrimSuffix(apiURL, "/"),
	}
}

// Configured reports whether client credentials were provided.
func (p *GithubProvider) Configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthCodeURL returns the GitHub authorize URL carrying state.
func (p *GithubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type githubUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile exchanges code for a token and reads the user's profile. When
// the public profile hides the email, the primary verified address from
// /user/emails is used instead.
func (p *GithubProvider) FetchProfile(ctx context.Context, code string) (ports.GithubProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return ports.GithubProfile{}, fmt.Errorf("github exchange: %w", err)
	}
	client := p.oauth.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return ports.GithubProfile{}, err
	}

	profile := ports.GithubProfile{Login: user.Login, Name: user.Name, Email: user.Email}
	if profile.Email != "" {
		return profile, nil
	}

	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return ports.GithubProfile{}, err
	}
	profile.Email = pickEmail(emails)
	return profile, nil
}

// pickEmail prefers the primary verified address, then any verified one.
func pickEmail(emails []githubEmail) string {
	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}

func (p *GithubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github %s: decode: %w", path, err)
	}
	return nil
}
