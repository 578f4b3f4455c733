package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/model"
)

// Workbook sheet names
const (
	SheetIssues  = "Jira issues"
	SheetDetails = "Report Details"
)

const (
	defaultSheet = "Sheet1"
	columnWidth  = 30
	headerFill   = "D9D9D9"
	reportLayout = "2006-01-02 15:04:05"
)

// ReportDetails describes how a Jira workbook was produced.
type ReportDetails struct {
	GeneratedBy string
	GeneratedOn time.Time
	RangeStart  time.Time
	RangeEnd    time.Time
	JQL         string
	Fields      []string
}

// rows returns the key/value rows of the "Report Details" sheet.
func (d ReportDetails) rows() [][]string {
	return [][]string{
		{"Generated by", d.GeneratedBy},
		{"Generated on", d.GeneratedOn.Format(reportLayout)},
		{"Date range start", d.RangeStart.Format(reportLayout)},
		{"Date range end", d.RangeEnd.Format(reportLayout)},
		{"JQL", d.JQL},
		{"Fields requested", strings.Join(d.Fields, ", ")},
	}
}

// IssuesWorkbook builds the spreadsheet evidence document for a Jira
// result set. The issues sheet has a styled header then one row per issue.
func IssuesWorkbook(issues []model.Issue, details ReportDetails) (Table, *model.Document, error) {
	t := IssuesWorkbookTable(issues)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, SheetIssues); err != nil {
		return t, nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeIssuesSheet(f, t.Sections[0]); err != nil {
		return t, nil, err
	}

	if _, err := f.NewSheet(SheetDetails); err != nil {
		return t, nil, fmt.Errorf("failed to add sheet %q: %w", SheetDetails, err)
	}
	if err := writeRows(f, SheetDetails, 1, details.rows()); err != nil {
		return t, nil, err
	}
	if err := f.SetColWidth(SheetDetails, "A", "B", columnWidth); err != nil {
		return t, nil, fmt.Errorf("failed to size columns: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return t, nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return t, &model.Document{
		Name:        constants.UploadNameXLSX,
		LocalName:   constants.JiraFilePrefix + details.GeneratedOn.Format(constants.JiraFileTimestamp) + ".xlsx",
		ContentType: model.ContentTypeXLSX,
		Data:        buf.Bytes(),
		Contents:    t.Contents(),
	}, nil
}

func writeIssuesSheet(f *excelize.File, s Section) error {
	if err := f.SetSheetRow(SheetIssues, "A1", &s.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeRows(f, SheetIssues, 2, s.Rows); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.Header))
	if err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetIssues, "A1", lastCol+"1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if len(s.Rows) > 0 {
		wrap, err := f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return fmt.Errorf("failed to create cell style: %w", err)
		}
		last := fmt.Sprintf("%s%d", lastCol, len(s.Rows)+1)
		if err := f.SetCellStyle(SheetIssues, "A2", last, wrap); err != nil {
			return fmt.Errorf("failed to style rows: %w", err)
		}
	}

	if err := f.SetColWidth(SheetIssues, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return nil
}

// writeRows writes rows starting at the given 1-based row number.
func writeRows(f *excelize.File, sheet string, start int, rows [][]string) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", start+i, sheet, err)
		}
	}
	return nil
}
