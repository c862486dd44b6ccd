package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"deload/internal/config"
	"deload/internal/query"
)

func newServeCmd() *cobra.Command {
	var (
		addr string
		mode string
		dsn  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the DE lookup API over HTTP",
		Long: `serve exposes the loaded database read-only:

  GET /api/de?type=dsEER&cellType=B%20cell&symbol=TP53&limit=100&threshold=0.05
  GET /api/cell-types?type=dsEER
  GET /healthz

The target defaults to server.target from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := serverSettings(cmd)
			m := config.Mode(mode)
			if m == "" {
				m = srv.Target
			}
			store, closeFn, err := openStore(cmd, m, overrides{dsn: dsn})
			if err != nil {
				return err
			}
			defer closeFn()

			if addr == "" {
				addr = srv.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Printf("serve: mode=%s addr=%s", m, addr)
			return query.NewServer(store).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&mode, "mode", "", "which target to serve: local or remote")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN (overrides config)")
	return cmd
}

// serverSettings reads the server block before the target is known. Load
// errors surface later from openStore, so they fall back to defaults here.
func serverSettings(cmd *cobra.Command) config.Server {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Default().Server
	}
	return cfg.Server
}
