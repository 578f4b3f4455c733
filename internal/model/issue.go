package model

// Issue is a flattened Jira issue. Dates are kept exactly as the server
// returned them.
type Issue struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Type     string `json:"type"`
	Project  string `json:"project"`
	Reporter string `json:"reporter"`
	Assignee string `json:"assignee"`
	Status   string `json:"status"`
	Created  string `json:"created"`
	Resolved string `json:"resolved"`
}

// IssueSearchResult is the envelope of a JQL search.
type IssueSearchResult struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}

// Len returns the number of issues carried by the envelope.
func (r *IssueSearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Issues)
}
