// Package github authenticates as a GitHub App and reports commit statuses for builds.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"
)

// NewClient returns an API client authenticated with token, or anonymous when token is empty.
// An empty apiURL targets api.github.com.
func NewClient(ctx context.Context, token, apiURL string) (*github.Client, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	client := github.NewClient(httpClient)
	if apiURL == "" {
		return client, nil
	}

	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid GitHub API URL %q", apiURL)
	}
	client.BaseURL = base
	return client, nil
}
