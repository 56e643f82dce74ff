package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"opssight/internal/platform/config"
)

const defaultAPIBaseURL = "https://api.github.com"

var (
	ErrNotFound    = errors.New("github: not found")
	ErrRateLimited = errors.New("github: rate limited")
)

// Client talks to the GitHub REST API. BaseURL is optional; when set
// (e.g. in tests) it replaces the default API host.
type Client struct {
	httpClient *http.Client
	oauth      *oauth2.Config
	BaseURL    string // for tests: e.g. httptest.Server.URL
}

func NewClient(cfg config.GitHubConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     oauthgithub.Endpoint,
		},
		BaseURL: cfg.APIBaseURL,
	}
}

// AuthCodeURL returns the GitHub OAuth consent URL for the given state token.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	return token.AccessToken, nil
}

func (c *Client) apiURL(path string) string {
	base := c.BaseURL
	if base == "" {
		base = defaultAPIBaseURL
	}
	return strings.TrimSuffix(base, "/") + path
}

// GetUser fetches the public profile for a GitHub login.
// token is optional; authenticated requests get higher rate limits.
func (c *Client) GetUser(ctx context.Context, login, token string) (*Profile, error) {
	return c.getProfile(ctx, "/users/"+url.PathEscape(login), token)
}

// GetAuthenticatedUser fetches the profile of the token's owner.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (*Profile, error) {
	return c.getProfile(ctx, "/user", token)
}

func (c *Client) getProfile(ctx context.Context, path, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			log.Warn().Str("path", path).Msg("github rate limit exhausted")
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("github: %s", resp.Status)
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var profile Profile
		if err := json.Unmarshal(body, &profile); err != nil {
			return nil, err
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("github: %s", resp.Status)
	}
}
