package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/evidence-collector/config"
)

// configSource is one layer of the configuration, in load order.
type configSource struct {
	name   string
	path   string
	exists bool
}

func configSources() []configSource {
	paths := config.GetConfigPaths()
	return []configSource{
		{name: "defaults", path: "(built in)", exists: true},
		{name: "global", path: paths.GlobalPath, exists: paths.GlobalExists},
		{name: "local", path: paths.LocalPath, exists: paths.LocalExists},
		{name: ".env", path: paths.DotEnvPath, exists: paths.DotEnvExists},
		{name: "environment", path: "(process)", exists: true},
	}
}

// NewCmdConfig creates the config command. Without a subcommand it prints
// the merged configuration.
func NewCmdConfig() *cobra.Command {
	cmd := newPrintConfigCmd("config", "Show or manage configuration", config.Load)
	cmd.Long = `Show or manage configuration. Settings are layered, later layers win:

  defaults -> global file -> local file -> .env -> environment

Secrets (GitHub token, Jira and collector passwords, collector API key)
are only read from .env or the environment and never printed.`

	cmd.AddCommand(
		newCmdConfigInit(),
		newCmdConfigPath(),
		newPrintConfigCmd("show", "Show the merged configuration", config.Load),
		newPrintConfigCmd("defaults", "Show the built in defaults", func() (*config.Config, error) {
			return config.DefaultConfig(), nil
		}),
		newCmdConfigSet(),
	)
	return cmd
}

// newPrintConfigCmd builds a command printing the config returned by load.
func newPrintConfigCmd(use, short string, load func() (*config.Config, error)) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

func newCmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init [global|local]",
		Short: "Write a starter config file",
		Long: `Write a starter config file. "global" (the default) writes the
per-user file. "local" writes ./.evidence-collector.yaml and, when missing,
a ./.env skeleton listing the secret variables.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"global", "local"},
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := "global"
			if len(args) == 1 {
				scope = args[0]
			}
			return runConfigInit(cmd.OutOrStdout(), scope)
		},
	}
}

func runConfigInit(out io.Writer, scope string) error {
	paths := config.GetConfigPaths()
	target := paths.GlobalPath
	if scope == "local" {
		target = paths.LocalPath
	}

	if err := writeNew(target, config.MinimalConfig()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s config: %s\n", scope, target)

	if scope == "local" && !paths.DotEnvExists {
		if err := writeNew(paths.DotEnvPath, config.DotEnvTemplate()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created secrets skeleton: %s (keep it out of version control)\n", paths.DotEnvPath)
	}
	return nil
}

// writeNew writes content to path unless a file is already there.
func writeNew(path, content string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%s already exists, edit it or remove it first", path)
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return config.SaveTo(path, content)
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "List the configuration layers and where they live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSources(cmd.OutOrStdout(), configSources())
			return nil
		},
	}
}

func printSources(w io.Writer, sources []configSource) {
	for i, s := range sources {
		state := color.HiBlackString("missing")
		if s.exists {
			state = color.GreenString("found")
		}
		fmt.Fprintf(w, "%d. %-12s %-8s %s\n", i+1, s.name, state, s.path)
	}
}

// printConfig renders cfg as YAML or JSON. Secret fields are tagged out of
// both encodings.
func printConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		out, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}

func newCmdConfigSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting in the global config file",
		Long: `Store a setting in the global config file. Keys:
  ` + strings.Join(config.SettableKeys(), "\n  ") + `

Secrets are refused; put them in .env or the environment:
  ` + strings.Join(config.SecretEnvVars(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadGlobal()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s saved to %s\n", args[0], args[1], config.ConfigPath())
			return nil
		},
	}
}
