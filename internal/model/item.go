// Package model contains domain types for the evidence collector.
// These types are independent of any external tracker library.
package model

// SearchResult is the envelope returned by a tracker search query.
// It is never modified after it has been decoded.
type SearchResult struct {
	Total      int          `json:"total"`
	Incomplete bool         `json:"incomplete"`
	Items      []SearchItem `json:"items"`
}

// Len returns the number of items carried by the envelope.
func (r *SearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// SearchItem is a sparse search hit that points at a detail resource.
type SearchItem struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	HTMLURL   string `json:"htmlUrl"`
	DetailURL string `json:"detailUrl"` // API URL of the pull request, empty for plain issues
}
