package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"deload/internal/config"
	"deload/internal/datasource/file"
	"deload/internal/importer"
	"deload/internal/metrics"
	"deload/internal/skiplog"
	"deload/internal/storage"

	// config picks the backend; every kind is compiled in.
	_ "deload/internal/storage/all"
)

func newImportCmd(mode config.Mode) *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, mode, o)
		},
	}
	switch mode {
	case config.ModeRemote:
		cmd.Use = "remote"
		cmd.Short = "Truncate and reload the hosted database"
		cmd.Long = `remote loads the annotation and every configured DE set into the hosted
database. Tables are created if missing and, unless remote.truncate is false,
emptied first. Each unit commits on its own: a failing set leaves the sets
loaded before it in place.`
	default:
		cmd.Use = "local"
		cmd.Short = "Rebuild the embedded SQLite database"
		cmd.Long = `local deletes the database file, recreates the tables and indexes, loads
the annotation and the configured DE sets, then runs ANALYZE and reports the
final file size.`
	}
	o.register(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, mode config.Mode, o overrides) error {
	verbose := verboseFlag(cmd)
	runID := uuid.NewString()
	log.Printf("deload: run_id=%s mode=%s", runID, mode)

	cfg, err := loadConfig(cmd, mode, o)
	if err != nil {
		return err
	}
	target := cfg.Target(mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush := setupMetrics(cfg.Metrics, runID, verbose)
	defer flush()

	skips, closeSkips, err := skiplog.New(skipLogPath(cfg.SkipLog, runID))
	if err != nil {
		return fmt.Errorf("skip log: %w", err)
	}
	defer func() {
		if err := closeSkips(); err != nil {
			log.Printf("skiplog: close: %v", err)
		}
	}()

	only, err := readOnly(cfg.Only)
	if err != nil {
		return err
	}

	if verbose {
		log.Printf("deload: kind=%s shape=%s sets=%d batch=%d skip_log=%q",
			target.Kind, target.Shape, len(cfg.SetsFor(mode)), cfg.Runtime.BatchSize, skips.Path())
	}

	repo, err := storage.New(ctx, storage.Config{
		Kind:  target.Kind,
		DSN:   target.DSN,
		Fresh: target.Fresh,
		WAL:   target.WAL,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", target.Kind, err)
	}
	defer repo.Close()

	start := time.Now()
	rep, err := importer.Run(ctx, repo, cfg, mode, importer.RunOptions{
		RunID:   runID,
		Verbose: verbose,
		Skips:   skips,
		Only:    only,
	})
	rep.Print(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("deload: completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

// skipLogPath expands a "{run_id}" placeholder so repeated runs do not
// overwrite each other's diagnostics.
func skipLogPath(p, runID string) string {
	return strings.ReplaceAll(p, "{run_id}", runID)
}

func readOnly(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}
	names, err := file.ReadList(path)
	if err != nil {
		return nil, fmt.Errorf("read cell-type list: %w", err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

// setupMetrics installs the configured backend and returns the flush to defer.
func setupMetrics(m config.Metrics, runID string, verbose bool) func() {
	b, err := newMetricsBackend(m, runID)
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", m.Backend, err)
		return func() {}
	}
	if b == nil {
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", m.Backend)
		}
		return func() {}
	}
	log.Printf("metrics: backend=%s job=%s", m.Backend, m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
