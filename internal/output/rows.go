// Package output turns fetched tracker records into evidence documents
// (CSV and spreadsheet) and renders them for terminal preview.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/evidence-collector/internal/model"
)

// TimeLayout formats pull request timestamps in documents.
const TimeLayout = "2006-01-02 15:04:05 MST"

// Section titles of the pull request document
const (
	SectionPullRequest = "Pull Request Details"
	SectionOutcome     = "Code Review Outcome"
	SectionReviews     = "Reviews"
	SectionComments    = "Comments"
	SectionIssues      = "Jira issues"
)

// IssueColumns is the fixed header of the Jira issues table.
var IssueColumns = []string{
	"Issue number",
	"Issue type",
	"Project",
	"Reporter",
	"Assignee",
	"Status",
	"Created",
	"Resolved",
}

// WorkbookExtraColumns follow IssueColumns on the workbook issues sheet.
var WorkbookExtraColumns = []string{"Summary", "Issue URL"}

// ReviewColumns is the header of the pull request reviews section.
var ReviewColumns = []string{"State", "Association", "Reviewer", "Profile", "Submitted At", "Body"}

// CommentColumns is the header of the pull request comments section.
var CommentColumns = []string{"Association", "Author", "Profile", "Created At", "Body"}

// Section is one titled block of a document. A nil Header marks a
// key/value block.
type Section struct {
	Title  string     `json:"title"`
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// Table is the ordered set of sections written to one document.
type Table struct {
	Sections []Section `json:"sections"`
}

// Contents lists the row count of every section carrying a header,
// e.g. "2 reviews, 3 comments".
func (t Table) Contents() string {
	var parts []string
	for _, s := range t.Sections {
		if s.Header != nil {
			parts = append(parts, fmt.Sprintf("%d %s", len(s.Rows), strings.ToLower(s.Title)))
		}
	}
	return strings.Join(parts, ", ")
}

// IssuesTable flattens Jira issues into one row each, in input order.
func IssuesTable(issues []model.Issue) Table {
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{
			i.Key,
			i.Type,
			i.Project,
			i.Reporter,
			i.Assignee,
			i.Status,
			i.Created,
			i.Resolved,
		})
	}
	return Table{Sections: []Section{{
		Title:  SectionIssues,
		Header: IssueColumns,
		Rows:   rows,
	}}}
}

// IssuesWorkbookTable is IssuesTable widened with the summary and browse
// link of each issue.
func IssuesWorkbookTable(issues []model.Issue) Table {
	t := IssuesTable(issues)
	s := &t.Sections[0]
	s.Header = append(append([]string{}, IssueColumns...), WorkbookExtraColumns...)
	for i, issue := range issues {
		s.Rows[i] = append(s.Rows[i], issue.Summary, issue.URL)
	}
	return t
}

// PullRequestTable flattens one pull request with its reviews and comments.
// Reviews and comments keep the order they were fetched in.
func PullRequestTable(ev *model.PullRequestEvidence) Table {
	pr := ev.PullRequest

	details := Section{
		Title: SectionPullRequest,
		Rows: [][]string{
			{"ID", pr.NodeID},
			{"URL", pr.HTMLURL},
			{"Description", pr.Body},
			{"Created At", formatTime(pr.CreatedAt)},
			{"Author Name", pr.Author.Login},
			{"Author Profile", pr.Author.HTMLURL},
			{"Head Repository", pr.Head.Repository},
			{"Head Ref", pr.Head.Name},
			{"Head Commit", pr.Head.SHA},
		},
	}

	outcome := Section{
		Title: SectionOutcome,
		Rows: [][]string{
			{"Merged By", pr.MergedBy.Login},
			{"Merged By Profile", pr.MergedBy.HTMLURL},
			{"Merged At", formatTime(pr.MergedAt)},
			{"Base Repository", pr.Base.Repository},
			{"Base Ref", pr.Base.Name},
			{"Base Commit", pr.Base.SHA},
		},
	}

	reviews := Section{Title: SectionReviews, Header: ReviewColumns, Rows: [][]string{}}
	for _, r := range ev.Reviews {
		reviews.Rows = append(reviews.Rows, []string{
			r.State,
			r.Association,
			r.Author.Login,
			r.Author.HTMLURL,
			formatTime(r.SubmittedAt),
			r.Body,
		})
	}

	comments := Section{Title: SectionComments, Header: CommentColumns, Rows: [][]string{}}
	for _, c := range ev.Comments {
		comments.Rows = append(comments.Rows, []string{
			c.Association,
			c.Author.Login,
			c.Author.HTMLURL,
			formatTime(c.CreatedAt),
			c.Body,
		})
	}

	return Table{Sections: []Section{details, outcome, reviews, comments}}
}

// formatTime renders t in UTC, the zero time renders empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
