package model

import "time"

// User identifies an account on the tracker.
type User struct {
	Login   string `json:"login"`
	HTMLURL string `json:"htmlUrl"`
}

// Ref is one side (head or base) of a pull request.
type Ref struct {
	Repository string `json:"repository"` // owner/name
	Name       string `json:"name"`
	SHA        string `json:"sha"`
}

// PullRequest holds the full attributes of one pull request.
type PullRequest struct {
	NodeID      string    `json:"nodeId"`
	URL         string    `json:"url"`
	HTMLURL     string    `json:"htmlUrl"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
	MergedAt    time.Time `json:"mergedAt,omitempty"`
	Author      User      `json:"author"`
	MergedBy    User      `json:"mergedBy"`
	Head        Ref       `json:"head"`
	Base        Ref       `json:"base"`
	CommentsURL string    `json:"commentsUrl"`
}

// ReviewsURL returns the endpoint listing the reviews of the pull request.
func (p *PullRequest) ReviewsURL() string {
	return p.URL + "/reviews"
}

// Comment is a conversation comment on a pull request.
type Comment struct {
	Author      User      `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	Association string    `json:"association"`
	Body        string    `json:"body"`
}

// Review is a submitted pull request review.
type Review struct {
	Author      User      `json:"author"`
	SubmittedAt time.Time `json:"submittedAt"`
	Association string    `json:"association"`
	State       string    `json:"state"` // APPROVED, CHANGES_REQUESTED, COMMENTED
	Body        string    `json:"body"`
}

// PullRequestEvidence groups a pull request with its comments and reviews,
// each in the order the tracker returned them.
type PullRequestEvidence struct {
	PullRequest PullRequest `json:"pullRequest"`
	Comments    []Comment   `json:"comments"`
	Reviews     []Review    `json:"reviews"`
}
