package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/model"
)

// EncodeCSV writes the table as CSV. With titles set, each section starts
// with its title line and sections are separated by a blank line.
func EncodeCSV(t Table, titles bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for i, s := range t.Sections {
		if titles {
			if i > 0 {
				if err := w.Write([]string{""}); err != nil {
					return nil, err
				}
			}
			if err := w.Write([]string{s.Title}); err != nil {
				return nil, err
			}
		}
		if s.Header != nil {
			if err := w.Write(s.Header); err != nil {
				return nil, err
			}
		}
		if err := w.WriteAll(s.Rows); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// PullRequestCSV builds the CSV evidence document of one pull request.
func PullRequestCSV(ev *model.PullRequestEvidence) (Table, *model.Document, error) {
	t := PullRequestTable(ev)
	data, err := EncodeCSV(t, true)
	if err != nil {
		return t, nil, err
	}
	return t, &model.Document{
		Name:        constants.UploadNameCSV,
		LocalName:   constants.PullRequestFilePrefix + ev.PullRequest.NodeID + ".csv",
		ContentType: model.ContentTypeCSV,
		Data:        data,
		Contents:    t.Contents(),
	}, nil
}

// IssuesCSV builds the CSV evidence document for a Jira result set:
// a header row then one row per issue.
func IssuesCSV(issues []model.Issue, now time.Time) (Table, *model.Document, error) {
	t := IssuesTable(issues)
	data, err := EncodeCSV(t, false)
	if err != nil {
		return t, nil, err
	}
	return t, &model.Document{
		Name:        constants.UploadNameCSV,
		LocalName:   constants.JiraFilePrefix + now.Format(constants.JiraFileTimestamp) + ".csv",
		ContentType: model.ContentTypeCSV,
		Data:        data,
		Contents:    t.Contents(),
	}, nil
}
