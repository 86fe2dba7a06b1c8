// Package commands implements the linemate CLI.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/linemate/pkg/logger"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linemate",
	Short: "Linemate - balanced hockey lines and teams",
	Long: `Linemate splits the players present for an evening into two balanced
teams of two forward lines and two defense pairs, steering away from
linemates who have played together often.

Rosters are CSV (name,attack,defense,present) or YAML files. Pairing
history lives in Redis when --redis is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return logger.Init(logger.WithWriter(io.Discard))
		}
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
			return err
		}
		return logger.SetLevelString("debug")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}
