// Package github fetches the profile numbers shown on the home page.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// Profile holds a user's public counters.
type Profile struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	PublicGists int    `json:"public_gists"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Client wraps the GitHub REST API.
type Client struct {
	api *gh.Client
}

// Options configures a Client. All fields are optional.
type Options struct {
	// BaseURL overrides https://api.github.com/.
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a client.
func NewClient(opts Options) (*Client, error) {
	api := gh.NewClient(opts.HTTP)
	if opts.Token != "" {
		api = api.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		api.BaseURL = u
	}
	return &Client{api: api}, nil
}

// FetchProfile returns user's public counters.
func (c *Client) FetchProfile(ctx context.Context, user string) (*Profile, error) {
	u, _, err := c.api.Users.Get(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("fetching github profile %s: %w", user, err)
	}
	return &Profile{
		Login:       u.GetLogin(),
		PublicRepos: u.GetPublicRepos(),
		PublicGists: u.GetPublicGists(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
	}, nil
}
