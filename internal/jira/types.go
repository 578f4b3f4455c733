package jira

import "github.com/spiffcs/evidence-collector/internal/model"

// searchResponse is the subset of the v2 search payload that is read.
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []issue `json:"issues"`
}

type issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary        string `json:"summary"`
	IssueType      *named `json:"issuetype"`
	Project        *named `json:"project"`
	Status         *named `json:"status"`
	Reporter       *user  `json:"reporter"`
	Assignee       *user  `json:"assignee"`
	Created        string `json:"created"`
	ResolutionDate string `json:"resolutiondate"`
}

// named covers issuetype, project and status, which all carry a name.
type named struct {
	Name string `json:"name"`
}

func (n *named) name() string {
	if n == nil {
		return ""
	}
	return n.Name
}

type user struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (u *user) display() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// toModel flattens the response. Issue links point at the browse page
// under baseURL.
func (r *searchResponse) toModel(baseURL string) *model.IssueSearchResult {
	issues := make([]model.Issue, 0, len(r.Issues))
	for _, i := range r.Issues {
		issues = append(issues, model.Issue{
			Key:      i.Key,
			URL:      baseURL + browsePath + i.Key,
			Summary:  i.Fields.Summary,
			Type:     i.Fields.IssueType.name(),
			Project:  i.Fields.Project.name(),
			Reporter: i.Fields.Reporter.display(),
			Assignee: i.Fields.Assignee.display(),
			Status:   i.Fields.Status.name(),
			Created:  i.Fields.Created,
			Resolved: i.Fields.ResolutionDate,
		})
	}
	return &model.IssueSearchResult{
		Total:  r.Total,
		Issues: issues,
	}
}
