package service

import (
	"context"
	"fmt"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/output"
	"github.com/spiffcs/evidence-collector/internal/window"
)

// Jira document formats
const (
	JiraFormatXLSX = "xlsx"
	JiraFormatCSV  = "csv"
)

// GeneratedBy is written to the "Report Details" sheet.
const GeneratedBy = "evidence-collector Jira Server evidence collector"

// JiraFlow runs one JQL search and uploads a single document for the
// whole result set.
type JiraFlow struct {
	flow
	source   IssueSource
	uploader Uploader
	jql      string
	format   string
	window   window.Window
}

// NewJiraFlow creates the Jira flow. format is JiraFormatXLSX or JiraFormatCSV.
func NewJiraFlow(source IssueSource, uploader Uploader, jql, format string, w window.Window, opts ...Option) *JiraFlow {
	return &JiraFlow{
		flow:     newFlow("jira", opts),
		source:   source,
		uploader: uploader,
		jql:      jql,
		format:   format,
		window:   w,
	}
}

// Run executes the flow once. An empty search result returns an error
// wrapping model.ErrEmptyResult and uploads nothing.
func (j *JiraFlow) Run(ctx context.Context) (*Result, error) {
	jql, err := j.window.Apply(j.jql)
	if err != nil {
		return nil, j.abort("", err)
	}

	j.transition(StateQuerying, Transition{})
	log.Info("running JQL search", "jql", jql)

	found, err := j.source.Search(ctx, jql)
	if err != nil {
		return nil, j.abort("", err)
	}

	result := &Result{Total: found.Len()}
	if found.Len() == 0 {
		j.transition(StateNoResults, Transition{})
		return result, fmt.Errorf("%w: no Jira issues matched the JQL query", model.ErrEmptyResult)
	}
	log.Info("search complete", "issues", found.Len(), "total", found.Total)

	step := Transition{Total: found.Len()}
	j.transition(StateFormatting, step)

	table, doc, err := j.document(found.Issues, jql)
	if err != nil {
		return result, j.abort("", fmt.Errorf("failed to format Jira issues: %w", err))
	}

	upload, err := j.deliver(ctx, j.uploader, table, doc, step)
	if err != nil {
		return result, j.abort("", err)
	}
	result.Uploads = append(result.Uploads, upload)

	j.transition(StateDone, step)
	return result, nil
}

func (j *JiraFlow) document(issues []model.Issue, jql string) (output.Table, *model.Document, error) {
	now := j.now()
	switch j.format {
	case JiraFormatCSV:
		return output.IssuesCSV(issues, now)
	case JiraFormatXLSX, "":
		return output.IssuesWorkbook(issues, output.ReportDetails{
			GeneratedBy: GeneratedBy,
			GeneratedOn: now,
			RangeStart:  j.window.Start,
			RangeEnd:    j.window.End,
			JQL:         jql,
			Fields:      constants.JiraFields,
		})
	default:
		return output.Table{}, nil, fmt.Errorf("%w: unknown Jira format %q", model.ErrConfiguration, j.format)
	}
}
