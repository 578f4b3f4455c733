// Package jira runs JQL searches against a Jira Server REST API.
package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
)

const (
	// searchPath is the Jira Server v2 search endpoint.
	searchPath = "/rest/api/2/search"
	browsePath = "/browse/"
)

// Client queries a Jira Server instance with Basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests inject httptest clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Jira client for the server at baseURL.
func NewClient(baseURL, username, password string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: Jira REST endpoint not provided", model.ErrConfiguration)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid Jira REST endpoint %q: %w", model.ErrConfiguration, baseURL, err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchURL builds the search request URL for jql.
func (c *Client) SearchURL(jql string) string {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("fields", strings.Join(constants.JiraFields, ","))
	q.Set("maxResults", strconv.Itoa(constants.JiraMaxResults))
	return c.baseURL + searchPath + "?" + q.Encode()
}

// Search runs one bounded JQL search and flattens the issues.
func (c *Client) Search(ctx context.Context, jql string) (*model.IssueSearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(jql), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build Jira request: %w", model.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("Authorization", "Basic "+basicCredentials(c.username, c.password))

	log.Debug("querying Jira", "endpoint", c.baseURL+searchPath)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: Jira search failed: %w", model.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Jira response: %w", model.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: Jira search returned %s: %s", model.ErrTransport, resp.Status, truncate(string(body), 200))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode Jira search response: %w", model.ErrParse, err)
	}
	if decoded.Issues == nil {
		return nil, fmt.Errorf("%w: Jira search response has no issues array: %s", model.ErrParse, truncate(string(body), 200))
	}

	result := decoded.toModel(c.baseURL)
	if result.Total > len(result.Issues) {
		log.Warn("JQL matched more issues than one page holds", "total", result.Total, "returned", len(result.Issues))
	}
	return result, nil
}

func basicCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
