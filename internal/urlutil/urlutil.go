// Package urlutil provides URL parsing utilities for GitHub API URLs.
package urlutil

import (
	"fmt"
	"strconv"
	"strings"
)

// RepoFromURL extracts owner and repo name from a repository API URL.
// URL format: https://host/api/v3/repos/owner/repo[/...]
func RepoFromURL(apiURL string) (owner, repo string) {
	_, trimmed, found := strings.Cut(apiURL, "/repos/")
	if !found || trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// ExtractNumber extracts the issue/PR number from the API URL.
// URL format: https://host/api/v3/repos/owner/repo/pulls/123
func ExtractNumber(apiURL string) (int, error) {
	idx := strings.LastIndex(strings.TrimRight(apiURL, "/"), "/")
	if idx < 0 {
		return 0, fmt.Errorf("invalid API URL format: %s", apiURL)
	}

	num, err := strconv.Atoi(strings.TrimRight(apiURL, "/")[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("failed to parse number from URL %s: %w", apiURL, err)
	}
	return num, nil
}

// ItemKey returns "owner/repo#N" for a pull request API URL, or the URL
// itself when it does not have that shape.
func ItemKey(apiURL string) string {
	owner, repo := RepoFromURL(apiURL)
	num, err := ExtractNumber(apiURL)
	if owner == "" || err != nil {
		return apiURL
	}
	return fmt.Sprintf("%s/%s#%d", owner, repo, num)
}
