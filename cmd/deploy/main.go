// Command deploy runs the site deployment from a terminal and carries the
// operator helpers (site scaffold, token issue, password hashing).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxequeer/deployer/pkg/config"
	"github.com/luxequeer/deployer/pkg/logger"
)

var (
	cfg     config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the Luxe Queer magazine site",
	Long: `deploy prepares the Luxe Queer static site for release.

Available subcommands:
  run            - Patch, minify and report on the site tree
  cancel         - Close a stuck deployment record
  scaffold       - Lay out a fresh site tree
  token          - Issue an operator API token
  hash-password  - Hash an operator password for OPERATOR_PASSWORD_HASH`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if _, err := logger.Init(level, cfg.LogFormat); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(runCmd, cancelCmd, scaffoldCmd, tokenCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
