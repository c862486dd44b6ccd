// Package cli wires the deload commands: the two import modes, config
// validation and the read-side query and HTTP server.
package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes returned by ExitCode.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitConfigError  = 2
)

// ErrInvalidConfig marks configuration that failed to load or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

const defaultConfigPath = "configs/deload.yaml"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deload",
		Short: "Load differential-expression results into SQL databases",
		Long: `deload reads the dsRNA annotation table and the per-cell-type DE result
folders and loads them into an embedded SQLite file (local) or a hosted
database (remote). The same tables can then be queried from the command line
or served over HTTP.

Exit Codes:
  0  - Success
  1  - General error (import or query failed)
  2  - Invalid configuration or CLI usage`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "config file (.yaml, .yml or .json)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logs")

	root.AddCommand(
		newImportCmd(modeLocal),
		newImportCmd(modeRemote),
		newValidateCmd(),
		newQueryCmd(),
		newServeCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, ErrInvalidConfig) {
		return ExitConfigError
	}
	msg := err.Error()
	for _, p := range []string{"unknown flag", "unknown shorthand flag", "unknown command", "invalid argument", "accepts ", "required flag"} {
		if strings.Contains(msg, p) {
			return ExitConfigError
		}
	}
	return ExitGeneralError
}

func verboseFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
