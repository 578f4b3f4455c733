package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/evidence-collector/config"
	"github.com/spiffcs/evidence-collector/internal/history"
	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
	"github.com/spiffcs/evidence-collector/internal/output"
	"github.com/spiffcs/evidence-collector/internal/service"
	"github.com/spiffcs/evidence-collector/internal/tui"
	"github.com/spiffcs/evidence-collector/internal/window"
)

// flowRuntime carries the progress view of one flow command and turns
// flow transitions into stage updates.
type flowRuntime struct {
	useTUI  bool
	title   string
	plan    tui.Plan
	events  chan tui.Event
	tuiDone chan error

	// per stage bookkeeping for the view
	done map[tui.Stage]int
	of   map[tui.Stage]int
}

// addRunFlags adds the flags shared by the flow commands.
func addRunFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "format", "f", "table", "Dry-run preview format (table, json, markdown)")
	flags.StringVarP(&opts.Range, "range", "r", "", "Look back this far instead of date_range_days (e.g., 90d, 12w, 3mo)")
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Build and save documents, preview them and skip the upload")
	flags.BoolVar(&opts.Pause, "pause", false, "Wait for ENTER before starting and before exiting")

	flags.Var(newTUIFlag(opts), "tui", "Show the progress view: true, false or auto")
	flags.Lookup("tui").NoOptDefVal = "true"

	flags.StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	flags.StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	flags.StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

// setupRuntime starts profiling and logging. Logs are discarded while the
// progress view owns the terminal. The returned function stops profiling.
func setupRuntime(opts *Options, title string, plan tui.Plan) (*flowRuntime, func(), error) {
	stop, err := startProfiling(opts)
	if err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return newFlowRuntime(useTUI, title, plan), stop, nil
}

func newFlowRuntime(useTUI bool, title string, plan tui.Plan) *flowRuntime {
	return &flowRuntime{
		useTUI: useTUI,
		title:  title,
		plan:   plan,
		done:   make(map[tui.Stage]int),
		of:     make(map[tui.Stage]int),
	}
}

// startTUI runs the progress view in the background when enabled.
func (rt *flowRuntime) startTUI() {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 256)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events, rt.title, rt.plan)
	}()
}

// close stops the progress view and restores logging to stderr.
func (rt *flowRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	if err := <-rt.tuiDone; err != nil {
		fmt.Fprintf(os.Stderr, "progress display failed: %v\n", err)
	}
	rt.events = nil
	log.SetOutput(os.Stderr)
}

// notice shows text below the stages, or logs it when the view is off.
func (rt *flowRuntime) notice(text string, warn bool) {
	switch {
	case rt.events != nil:
		tui.Send(rt.events, tui.NoticeEvent{Text: text, Warn: warn})
	case warn:
		log.Warn(text)
	default:
		log.Info(text)
	}
}

// stageOf maps a flow state to the stage it is shown as.
func stageOf(s service.State) (tui.Stage, bool) {
	switch s {
	case service.StateQuerying:
		return tui.StageQuery, true
	case service.StateFetchingDetail:
		return tui.StageDetail, true
	case service.StateFormatting:
		return tui.StageFormat, true
	case service.StateUploading:
		return tui.StageUpload, true
	default:
		return 0, false
	}
}

// observe turns flow transitions into stage updates. Leaving a stage counts
// one item done; per pull request stages count towards the search total,
// the Jira stages towards a single document.
func (rt *flowRuntime) observe(t service.Transition) {
	from, left := stageOf(t.From)

	if t.To == service.StateAborted {
		if left {
			rt.send(from, tui.StatusFailed, t.Item, t.Err)
		}
		return
	}

	if left {
		if from == tui.StageQuery {
			rt.done[from], rt.of[from] = t.Total, t.Total
			rt.send(from, tui.StatusComplete, "", nil)
		} else {
			rt.done[from]++
			status := tui.StatusRunning
			if rt.done[from] >= rt.of[from] {
				status = tui.StatusComplete
			}
			rt.send(from, status, "", nil)
		}
	}

	switch t.To {
	case service.StateDone, service.StateNoResults:
		for _, stage := range rt.plan.Stages() {
			switch {
			case stage == tui.StageQuery:
			case rt.done[stage] == 0:
				rt.send(stage, tui.StatusSkipped, "", nil)
			default:
				rt.send(stage, tui.StatusComplete, "", nil)
			}
		}
	default:
		if to, ok := stageOf(t.To); ok {
			rt.of[to] = 1
			if t.Index > 0 {
				rt.of[to] = t.Total
			}
			rt.send(to, tui.StatusRunning, t.Item, nil)
		}
	}
}

func (rt *flowRuntime) send(stage tui.Stage, status tui.Status, item string, err error) {
	tui.Send(rt.events, tui.StageEvent{
		Stage:  stage,
		Status: status,
		Done:   rt.done[stage],
		Of:     rt.of[stage],
		Item:   item,
		Err:    err,
	})
}

// resolveWindow computes the date window from --range or the config.
func resolveWindow(opts *Options, cfg *config.Config, now time.Time) (window.Window, error) {
	days := cfg.DateRangeDays
	if opts.Range != "" {
		d, err := window.ParseDays(opts.Range)
		if err != nil {
			return window.Window{}, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
		}
		days = d
	}
	if days > window.MaxDays {
		return window.Window{}, fmt.Errorf("%w: date range of %d days exceeds %d", model.ErrConfiguration, days, window.MaxDays)
	}
	return window.New(now, days), nil
}

// flowOptions builds the service options shared by both flows. The preview
// is buffered so it never interleaves with the progress display.
func flowOptions(opts *Options, cfg *config.Config, rt *flowRuntime, preview *bytes.Buffer) ([]service.Option, error) {
	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	return []service.Option{
		service.WithDryRun(opts.DryRun),
		service.WithWriter(output.NewWriter(cfg.LocalOutputPath)),
		service.WithPreview(output.NewFormatter(format), preview),
		service.WithObserver(rt.observe),
	}, nil
}

// waitForEnter blocks until a line is read from in.
func waitForEnter(in io.Reader, out io.Writer, prompt string) {
	fmt.Fprint(out, prompt)
	_, _ = bufio.NewReader(in).ReadString('\n')
}

// report prints the outcome of a flow run to out. An empty result is
// informational and not an error.
func report(out io.Writer, result *service.Result, preview *bytes.Buffer, err error) error {
	if preview != nil && preview.Len() > 0 {
		_, _ = preview.WriteTo(out)
	}

	if errors.Is(err, model.ErrEmptyResult) {
		fmt.Fprintln(out, "No results found, nothing to upload.")
		return nil
	}

	if result != nil {
		for _, u := range result.Uploads {
			switch {
			case u.Receipt != nil:
				fmt.Fprintf(out, "Evidence uploaded, result id %d\n", u.Receipt.ID)
			case u.LocalPath != "":
				fmt.Fprintf(out, "Dry run: %s (%s) saved to %s\n", u.Name, u.Contents, u.LocalPath)
			default:
				fmt.Fprintf(out, "Dry run: %s (%s) not uploaded\n", u.Name, u.Contents)
			}
		}
		if result.Skipped > 0 {
			fmt.Fprintf(out, "Skipped %d of %d results without a pull request.\n", result.Skipped, result.Total)
		}
	}

	return err
}

// recordRun appends the outcome of a run to the local history ledger.
// Ledger failures are logged and never fail the run.
func recordRun(flow, query string, w window.Window, dryRun bool, state service.State, result *service.Result, runErr error) {
	store, err := history.NewStore()
	if err != nil {
		log.Warn("could not open history", "error", err)
		return
	}

	rec := history.Record{
		Timestamp:  time.Now().UTC(),
		Flow:       flow,
		Query:      query,
		RangeStart: w.StartDate(),
		RangeEnd:   w.EndDate(),
		Outcome:    state.String(),
		DryRun:     dryRun,
	}
	if result != nil {
		rec.Total = result.Total
		rec.Skipped = result.Skipped
		for _, u := range result.Uploads {
			up := history.Upload{Item: u.Item, Name: u.Name, Contents: u.Contents, LocalPath: u.LocalPath}
			if u.Receipt != nil {
				up.ResultID = u.Receipt.ID
			}
			rec.Uploads = append(rec.Uploads, up)
		}
	}
	if runErr != nil && !errors.Is(runErr, model.ErrEmptyResult) {
		rec.Error = runErr.Error()
	}

	if err := store.Append(rec); err != nil {
		log.Warn("could not write history", "path", store.Path(), "error", err)
	}
}
