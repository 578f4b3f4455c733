package cmd

// Options holds the shared command-line options for the evidence flows.
type Options struct {
	Format    string // Dry-run preview format (table, json, markdown)
	Range     string // Look-back override, e.g. "90d" or "3mo"
	Verbosity int
	DryRun    bool  // Build and save documents without uploading
	Pause     bool  // Wait for ENTER before starting and before exiting
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Format: "table",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the dry-run preview format.
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithRange overrides the configured date range (e.g., "90d", "12w", "3mo").
func WithRange(r string) Option {
	return func(o *Options) {
		o.Range = r
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithDryRun skips the upload step.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithPause waits for ENTER at start and end.
func WithPause(pause bool) Option {
	return func(o *Options) {
		o.Pause = pause
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
