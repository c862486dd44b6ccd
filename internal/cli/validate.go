package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"deload/internal/config"
)

func newValidateCmd() *cobra.Command {
	var (
		o    overrides
		mode string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Long: `validate resolves the config exactly as an import would (file, .env,
environment, flags) and prints every issue. It exits 0 when no errors were
found and 1 otherwise; warnings do not fail validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := config.Mode(mode)
			if m != config.ModeLocal && m != config.ModeRemote {
				return fmt.Errorf("%w: --mode must be local or remote, got %q", ErrInvalidConfig, mode)
			}
			path, _ := cmd.Flags().GetString("config")
			if _, err := loadConfig(cmd, m, o); err != nil {
				if errors.Is(err, ErrInvalidConfig) {
					return errValidationFailed{path: path}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %s (%s mode)\n", path, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(config.ModeLocal), "mode to validate for: local or remote")
	o.register(cmd)
	return cmd
}

// errValidationFailed is the negative verdict of validate. It maps to exit
// code 1.
type errValidationFailed struct{ path string }

func (e errValidationFailed) Error() string {
	return "configuration is invalid: " + e.path
}
