package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spiffcs/evidence-collector/cmd.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildInfo returns the ldflags values, filling unset ones from the VCS
// stamp that go build embeds.
func buildInfo(read func() (*debug.BuildInfo, bool)) (v, c, d string) {
	v, c, d = version, commit, date
	info, ok := read()
	if !ok {
		return v, c, d
	}
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && c == "none":
			c = s.Value
		case s.Key == "vcs.time" && d == "unknown":
			d = s.Value
		}
	}
	return v, c, d
}

// NewCmdVersion creates the version command.
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			v, c, d := buildInfo(debug.ReadBuildInfo)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "evidence-collector %s\n", v)
			fmt.Fprintf(out, "  commit: %s\n", c)
			fmt.Fprintf(out, "  built:  %s\n", d)
			fmt.Fprintf(out, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
