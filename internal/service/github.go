package service

import (
	"context"
	"fmt"

	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/output"
	"github.com/spiffcs/evidence-collector/internal/window"
)

// GitHubFlow searches pull requests and uploads one CSV document per
// pull request.
type GitHubFlow struct {
	flow
	source   PullRequestSource
	uploader Uploader
	query    string
	window   window.Window
}

// NewGitHubFlow creates the pull request flow. query may carry two %s
// placeholders that receive the window start and end dates.
func NewGitHubFlow(source PullRequestSource, uploader Uploader, query string, w window.Window, opts ...Option) *GitHubFlow {
	return &GitHubFlow{
		flow:     newFlow("github", opts),
		source:   source,
		uploader: uploader,
		query:    query,
		window:   w,
	}
}

// Run executes the flow once. Items are processed sequentially and the
// first failure aborts the run. An empty search result returns an error
// wrapping model.ErrEmptyResult.
func (g *GitHubFlow) Run(ctx context.Context) (*Result, error) {
	query, err := g.window.Apply(g.query)
	if err != nil {
		return nil, g.abort("", err)
	}

	g.transition(StateQuerying, Transition{})
	log.Info("searching pull requests", "query", query)

	found, err := g.source.Search(ctx, query)
	if err != nil {
		return nil, g.abort("", err)
	}

	result := &Result{Total: found.Len()}
	if found.Len() == 0 {
		g.transition(StateNoResults, Transition{})
		return result, fmt.Errorf("%w: no pull requests matched %q", model.ErrEmptyResult, query)
	}
	if found.Incomplete {
		log.Warn("search results are incomplete", "total", found.Total)
	}
	log.Info("search complete", "items", found.Len(), "total", found.Total)

	for i, item := range found.Items {
		if err := ctx.Err(); err != nil {
			return result, g.abort(item.Key, err)
		}

		step := Transition{Item: item.Key, Index: i + 1, Total: found.Len()}

		if item.DetailURL == "" {
			log.Warn("skipping search item without pull request", "item", item.Key)
			result.Skipped++
			continue
		}

		g.transition(StateFetchingDetail, step)
		evidence, err := g.source.FetchDetail(ctx, item)
		if err != nil {
			return result, g.abort(item.Key, err)
		}

		g.transition(StateFormatting, step)
		table, doc, err := output.PullRequestCSV(evidence)
		if err != nil {
			return result, g.abort(item.Key, fmt.Errorf("failed to format %s: %w", item.Key, err))
		}

		upload, err := g.deliver(ctx, g.uploader, table, doc, step)
		if err != nil {
			return result, g.abort(item.Key, err)
		}
		result.Uploads = append(result.Uploads, upload)
	}

	g.transition(StateDone, Transition{Total: found.Len()})
	return result, nil
}
