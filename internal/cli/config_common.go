package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"deload/internal/config"
)

const (
	modeLocal  = config.ModeLocal
	modeRemote = config.ModeRemote
)

// overrides are the per-command flags that win over env and file.
type overrides struct {
	dsn            string
	batchSize      int
	metricsBackend string
	pushgatewayURL string
	skipLog        string
	only           string
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.dsn, "dsn", "", "database DSN (overrides config and DELOAD_DSN)")
	f.IntVar(&o.batchSize, "batch-size", 0, "rows per COPY/insert batch")
	f.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog")
	f.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
	f.StringVar(&o.skipLog, "skip-log", "", "CSV file receiving skipped lines")
	f.StringVar(&o.only, "only", "", "file listing the cell types to load, one per line")
}

func (o overrides) apply(cfg *config.Config, mode config.Mode) {
	if o.dsn != "" {
		if mode == config.ModeRemote {
			cfg.Remote.DSN = o.dsn
		} else {
			cfg.Local.DSN = o.dsn
		}
	}
	if o.batchSize > 0 {
		cfg.Runtime.BatchSize = o.batchSize
	}
	if o.metricsBackend != "" {
		cfg.Metrics.Backend = o.metricsBackend
	}
	if o.pushgatewayURL != "" {
		cfg.Metrics.PushgatewayURL = o.pushgatewayURL
	}
	if o.skipLog != "" {
		cfg.SkipLog = o.skipLog
	}
	if o.only != "" {
		cfg.Only = o.only
	}
}

// loadConfig resolves the effective config for mode: defaults, then the
// config file, then .env and the environment, then flags. Issues are printed
// to stderr; errors abort with ErrInvalidConfig.
func loadConfig(cmd *cobra.Command, mode config.Mode, o overrides) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	if err := config.LoadDotEnv(".env"); err != nil {
		return config.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		log.Printf("config: %s not found, using defaults", path)
		cfg = config.Default()
	default:
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	o.apply(&cfg, mode)

	issues := config.Validate(cfg, mode)
	printIssues(cmd.ErrOrStderr(), issues)
	if config.HasErrors(issues) {
		return cfg, fmt.Errorf("%w: %s (%s mode)", ErrInvalidConfig, path, mode)
	}
	return cfg, nil
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}
