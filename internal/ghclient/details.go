package ghclient

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
)

// ErrNotPullRequest is returned for search items that carry no pull request link.
var ErrNotPullRequest = errors.New("search item is not a pull request")

// FetchDetail fetches the pull request behind item together with its
// comments and reviews. Any failure discards the partial detail.
func (c *Client) FetchDetail(ctx context.Context, item model.SearchItem) (*model.PullRequestEvidence, error) {
	if item.DetailURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotPullRequest, item.Key)
	}

	pr, err := getJSON[*gh.PullRequest](ctx, c, item.DetailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request %s: %w", item.Key, err)
	}
	if pr == nil {
		return nil, fmt.Errorf("%w: empty pull request body for %s", model.ErrParse, item.Key)
	}
	pull := toPullRequest(pr)
	if pull.URL == "" {
		pull.URL = item.DetailURL
	}

	var comments []model.Comment
	if pull.CommentsURL != "" {
		raw, err := getJSON[[]*gh.IssueComment](ctx, c, pull.CommentsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch comments for %s: %w", item.Key, err)
		}
		comments = toComments(raw)
	} else {
		log.Debug("pull request has no comments link", "item", item.Key)
	}

	raw, err := getJSON[[]*gh.PullRequestReview](ctx, c, pull.ReviewsURL())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews for %s: %w", item.Key, err)
	}

	log.Debug("fetched pull request detail", "item", item.Key, "comments", len(comments), "reviews", len(raw))

	return &model.PullRequestEvidence{
		PullRequest: pull,
		Comments:    comments,
		Reviews:     toReviews(raw),
	}, nil
}

func toUser(u *gh.User) model.User {
	return model.User{
		Login:   u.GetLogin(),
		HTMLURL: u.GetHTMLURL(),
	}
}

func toRef(b *gh.PullRequestBranch) model.Ref {
	return model.Ref{
		Repository: b.GetRepo().GetFullName(),
		Name:       b.GetRef(),
		SHA:        b.GetSHA(),
	}
}

func toPullRequest(pr *gh.PullRequest) model.PullRequest {
	commentsURL := pr.GetLinks().GetComments().GetHRef()
	if commentsURL == "" {
		commentsURL = pr.GetCommentsURL()
	}

	return model.PullRequest{
		NodeID:      pr.GetNodeID(),
		URL:         pr.GetURL(),
		HTMLURL:     pr.GetHTMLURL(),
		Body:        pr.GetBody(),
		CreatedAt:   pr.GetCreatedAt().Time,
		MergedAt:    pr.GetMergedAt().Time,
		Author:      toUser(pr.GetUser()),
		MergedBy:    toUser(pr.GetMergedBy()),
		Head:        toRef(pr.GetHead()),
		Base:        toRef(pr.GetBase()),
		CommentsURL: commentsURL,
	}
}

// toComments keeps the order the server returned.
func toComments(raw []*gh.IssueComment) []model.Comment {
	comments := make([]model.Comment, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		comments = append(comments, model.Comment{
			Author:      toUser(c.GetUser()),
			CreatedAt:   c.GetCreatedAt().Time,
			Association: c.GetAuthorAssociation(),
			Body:        c.GetBody(),
		})
	}
	return comments
}

// toReviews keeps the order the server returned.
func toReviews(raw []*gh.PullRequestReview) []model.Review {
	reviews := make([]model.Review, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		reviews = append(reviews, model.Review{
			Author:      toUser(r.GetUser()),
			SubmittedAt: r.GetSubmittedAt().Time,
			Association: r.GetAuthorAssociation(),
			State:       r.GetState(),
			Body:        r.GetBody(),
		})
	}
	return reviews
}
