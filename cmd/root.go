package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "evidence-collector",
		Short: "Collect tracker evidence and upload it for compliance",
		Long: `Queries an issue tracker, flattens the results into a tabular
evidence document and uploads it to a compliance evidence collector.

  github  one CSV per merged pull request (details, reviews, comments)
  jira    one spreadsheet or CSV for a whole JQL result set`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Register subcommands
	rootCmd.AddCommand(NewCmdGitHub(NewOptions()))
	rootCmd.AddCommand(NewCmdJira(NewOptions()))
	rootCmd.AddCommand(NewCmdHistory())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
