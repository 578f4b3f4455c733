// Package ghclient fetches pull request evidence from a GitHub Enterprise
// Server REST API.
package ghclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/urlutil"
)

// Client wraps the GitHub API client
type Client struct {
	client *gh.Client
	limits *rateLimitState
}

// NewClient creates a client for the GitHub Enterprise Server at baseURL
// (for example https://github.example.com/) using a personal access token.
func NewClient(ctx context.Context, baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: GitHub token not provided. Set the GITHUB_TOKEN environment variable", model.ErrConfiguration)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%w: GitHub REST endpoint not provided", model.ErrConfiguration)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	limits := newRateLimitState()
	tc.Transport = &rateLimitTransport{
		base:  tc.Transport,
		state: limits,
	}

	client, err := gh.NewClient(tc).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid GitHub REST endpoint %q: %w", model.ErrConfiguration, baseURL, err)
	}
	client.UserAgent = constants.UserAgent

	return &Client{
		client: client,
		limits: limits,
	}, nil
}

// RateLimit returns the last rate limit values reported by the server.
func (c *Client) RateLimit() RateLimitStatus {
	return c.limits.status()
}

// Search runs one bounded issue search. Only the first page is requested.
func (c *Client) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{
			PerPage: constants.SearchPageSize,
		},
	}

	result, _, err := c.client.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, classify("failed to search issues", err)
	}

	items := make([]model.SearchItem, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, issueToItem(issue))
	}

	if result.GetTotal() > len(items) {
		log.Warn("search matched more items than one page holds", "total", result.GetTotal(), "returned", len(items))
	}

	return &model.SearchResult{
		Total:      result.GetTotal(),
		Incomplete: result.GetIncompleteResults(),
		Items:      items,
	}, nil
}

// issueToItem converts a GitHub search result issue to a model.SearchItem.
func issueToItem(issue *gh.Issue) model.SearchItem {
	detailURL := issue.GetPullRequestLinks().GetURL()

	var key string
	switch owner, repo := urlutil.RepoFromURL(issue.GetRepositoryURL()); {
	case owner != "" && issue.GetNumber() != 0:
		key = fmt.Sprintf("%s/%s#%d", owner, repo, issue.GetNumber())
	case detailURL != "":
		key = urlutil.ItemKey(detailURL)
	default:
		key = fmt.Sprintf("#%d", issue.GetNumber())
	}

	return model.SearchItem{
		Key:       key,
		Title:     issue.GetTitle(),
		HTMLURL:   issue.GetHTMLURL(),
		DetailURL: detailURL,
	}
}

// getJSON issues a GET against an absolute API URL and decodes the body as T.
func getJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	var v T
	req, err := c.client.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return v, fmt.Errorf("%w: failed to build request for %s: %w", model.ErrTransport, url, err)
	}
	if _, err := c.client.Do(ctx, req, &v); err != nil {
		return v, classify("failed to get "+url, err)
	}
	return v, nil
}

// classify wraps err with the sentinel matching its failure class.
func classify(msg string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %s: %w", model.ErrParse, msg, err)
	default:
		return fmt.Errorf("%w: %s: %w", model.ErrTransport, msg, err)
	}
}
