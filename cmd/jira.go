package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/evidence-collector/config"
	"github.com/spiffcs/evidence-collector/internal/jira"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/service"
	"github.com/spiffcs/evidence-collector/internal/tui"
)

// NewCmdJira creates the jira command.
func NewCmdJira(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jira",
		Short: "Upload issue evidence from Jira Server",
		Long: `Runs the configured JQL search against Jira Server and uploads a
single evidence document for the whole result set. The document is an
.xlsx workbook (sheets "Jira issues" and "Report Details") or a CSV,
selected by jira.format.

The JQL may contain two %s placeholders that receive the start and end of
the date range, e.g. "updated >= %s AND updated < %s".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJira(cmd, opts)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func runJira(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	rt, cleanup, err := setupRuntime(opts, "Jira issue evidence", tui.JiraPlan())
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateJira(!opts.DryRun); err != nil {
		return err
	}

	w, err := resolveWindow(opts, cfg, time.Now())
	if err != nil {
		return err
	}

	client, err := jira.NewClient(cfg.Jira.RestEndpoint, cfg.Jira.Username, cfg.Jira.Password)
	if err != nil {
		return err
	}

	var uploader service.Uploader
	if !opts.DryRun {
		uploader, err = newUploader(cfg)
		if err != nil {
			return err
		}
	}

	var preview bytes.Buffer
	flowOpts, err := flowOptions(opts, cfg, rt, &preview)
	if err != nil {
		return err
	}

	if opts.Pause {
		waitForEnter(cmd.InOrStdin(), cmd.ErrOrStderr(), "Press ENTER to start...")
	}

	rt.startTUI()
	flow := service.NewJiraFlow(client, uploader, cfg.Jira.JQLQuery, cfg.Jira.Format, w, flowOpts...)
	log.Info("collecting Jira evidence", "from", w.StartDate(), "to", w.EndDate(), "format", cfg.Jira.Format, "dry_run", opts.DryRun)
	result, runErr := flow.Run(ctx)
	rt.close()

	recordRun("jira", cfg.Jira.JQLQuery, w, opts.DryRun, flow.State(), result, runErr)
	err = report(cmd.OutOrStdout(), result, &preview, runErr)

	if opts.Pause {
		waitForEnter(cmd.InOrStdin(), cmd.ErrOrStderr(), "Press ENTER to exit...")
	}
	return err
}
