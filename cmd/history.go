package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spiffcs/evidence-collector/internal/format"
	"github.com/spiffcs/evidence-collector/internal/history"
)

// NewCmdHistory creates the history command.
func NewCmdHistory() *cobra.Command {
	var limit int
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent evidence runs",
		Long: `Show the most recent evidence runs recorded on this machine, with the
collector result id of every uploaded document.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.NewStore()
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			records, err := store.Recent(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			return printHistory(cmd.OutOrStdout(), records, outputFormat)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")

	return cmd
}

// printHistory renders records newest first.
func printHistory(w io.Writer, records []history.Record, outputFormat string) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table":
	default:
		return fmt.Errorf("invalid format: %s (must be table or json)", outputFormat)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No evidence runs recorded yet.")
		return nil
	}

	header := []string{"WHEN", "FLOW", "RANGE", "OUTCOME", "RESULTS", "RESULT IDS"}
	rows := make([][]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		outcome := r.Outcome
		if r.DryRun {
			outcome += " (dry run)"
		}
		ids := make([]string, 0, len(r.Uploads))
		for _, u := range r.Uploads {
			if u.ResultID != 0 {
				ids = append(ids, fmt.Sprint(u.ResultID))
			}
		}
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.Flow,
			r.RangeStart + ".." + r.RangeEnd,
			outcome,
			fmt.Sprint(r.Total),
			strings.Join(ids, ","),
		})
	}

	widths := format.Columns(header, rows, 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(format.Row(header, widths)))
	for _, row := range rows {
		fmt.Fprintln(w, format.Row(row, widths))
	}
	return nil
}
