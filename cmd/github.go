package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/evidence-collector/config"
	"github.com/spiffcs/evidence-collector/internal/collector"
	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/ghclient"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/service"
	"github.com/spiffcs/evidence-collector/internal/tui"
)

// NewCmdGitHub creates the github command.
func NewCmdGitHub(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Upload pull request evidence from GitHub Enterprise Server",
		Long: `Runs the configured issue search against GitHub Enterprise Server,
fetches every matching pull request with its comments and reviews and
uploads one CSV evidence document per pull request.

The query may contain two %s placeholders that receive the start and end
of the date range, e.g. "is:pr is:merged merged:%s..%s".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGitHub(cmd, opts)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func runGitHub(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	rt, cleanup, err := setupRuntime(opts, "GitHub pull request evidence", tui.GitHubPlan())
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateGitHub(!opts.DryRun); err != nil {
		return err
	}

	w, err := resolveWindow(opts, cfg, time.Now())
	if err != nil {
		return err
	}

	client, err := ghclient.NewClient(ctx, cfg.GitHub.RestEndpoint, cfg.GitHub.Token)
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
	flow := service.NewGitHubFlow(client, uploader, cfg.GitHub.Query, w, flowOpts...)
	log.Info("collecting pull request evidence", "from", w.StartDate(), "to", w.EndDate(), "dry_run", opts.DryRun)
	result, runErr := flow.Run(ctx)

	if rl := client.RateLimit(); rl.Limit > 0 && rl.Remaining <= constants.RateLimitLowWatermark {
		rt.notice(fmt.Sprintf("GitHub rate limit low: %d/%d remaining, resets %s",
			rl.Remaining, rl.Limit, rl.ResetAt.Local().Format(time.Kitchen)), true)
	}
	rt.close()

	recordRun("github", cfg.GitHub.Query, w, opts.DryRun, flow.State(), result, runErr)
	err = report(cmd.OutOrStdout(), result, &preview, runErr)

	if opts.Pause {
		waitForEnter(cmd.InOrStdin(), cmd.ErrOrStderr(), "Press ENTER to exit...")
	}
	return err
}

// newUploader creates the collector client from the config.
func newUploader(cfg *config.Config) (*collector.Client, error) {
	return collector.NewClient(cfg.Collector.URL, cfg.Collector.Username, cfg.Collector.Password, cfg.Collector.APIKey)
}
