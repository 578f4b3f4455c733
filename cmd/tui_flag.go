package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spiffcs/evidence-collector/internal/tui"
)

// tuiFlag binds --tui to Options.TUI. A bare --tui forces the progress
// view on and "auto" leaves the choice to terminal detection.
type tuiFlag struct {
	opts *Options
}

var _ pflag.Value = (*tuiFlag)(nil)

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *tuiFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		f.opts.TUI = nil
		return nil
	case "on", "yes":
		s = "true"
	case "off", "no":
		s = "false"
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "auto|bool"
}

// shouldUseTUI reports whether the progress view replaces log output.
// Any -v wins so that the requested logs stay visible.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.Interactive()
	}
}
