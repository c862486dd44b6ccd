package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"deload/internal/config"
	"deload/internal/query"
	"deload/internal/record"
)

type queryFlags struct {
	mode   string
	dsn    string
	params query.Params
	cells  bool
	asJSON bool
}

func newQueryCmd() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up DE results in a loaded database",
		Long: `query reads the database loaded by local or remote mode.

With --symbol it returns the rows of that gene (dsRNA sets resolve the symbol
through the annotation table); without it, the rows of the cell type whose
padj is below --threshold. --cell-types lists the loaded cell types instead.`,
		Example: `  deload query --cell-type "B cell" --symbol TP53
  deload query --mode remote --type mRNA --cell-type NK --threshold 0.01 --json
  deload query --cell-types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, qf)
		},
	}
	f := cmd.Flags()
	f.StringVar(&qf.mode, "mode", string(config.ModeLocal), "which target to read: local or remote")
	f.StringVar(&qf.dsn, "dsn", "", "database DSN (overrides config)")
	f.StringVar(&qf.params.AnalysisType, "type", query.DefaultAnalysisType, "analysis type (wide schema only)")
	f.StringVar(&qf.params.CellType, "cell-type", "", "cell type to search")
	f.StringVar(&qf.params.Symbol, "symbol", "", "gene symbol or ENSG id")
	f.Float64Var(&qf.params.Threshold, "threshold", query.DefaultThreshold, "padj cut-off when no symbol is given")
	f.IntVar(&qf.params.Limit, "limit", query.DefaultLimit, "maximum rows returned")
	f.BoolVar(&qf.cells, "cell-types", false, "list cell types and exit")
	f.BoolVar(&qf.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func runQuery(cmd *cobra.Command, qf queryFlags) error {
	mode := config.Mode(qf.mode)
	store, closeFn, err := openStore(cmd, mode, overrides{dsn: qf.dsn})
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if qf.cells {
		types, err := store.CellTypes(ctx, qf.params.AnalysisType)
		if err != nil {
			return err
		}
		if qf.asJSON {
			return writeJSON(out, types)
		}
		for _, t := range types {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	hits, err := store.Search(ctx, qf.params)
	if err != nil {
		return err
	}
	if qf.asJSON {
		return writeJSON(out, hits)
	}
	printHits(out, hits)
	return nil
}

// openStore resolves the target for mode and opens a query store on it.
func openStore(cmd *cobra.Command, mode config.Mode, o overrides) (*query.Store, func(), error) {
	if mode != config.ModeLocal && mode != config.ModeRemote {
		return nil, nil, fmt.Errorf("%w: --mode must be local or remote, got %q", ErrInvalidConfig, mode)
	}
	cfg, err := loadConfig(cmd, mode, o)
	if err != nil {
		return nil, nil, err
	}
	target := cfg.Target(mode)
	db, err := query.Open(cmd.Context(), target.Kind, target.DSN)
	if err != nil {
		return nil, nil, err
	}
	return query.New(db, record.Shape(target.Shape)), func() { _ = db.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHits(w io.Writer, hits []query.Hit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCELL TYPE\tSYMBOL\tLOG2FC\tPVALUE\tPADJ\tBASEMEAN")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			h.ID, h.CellType, h.Symbol.ValueOrZero(),
			num(h.Log2FC), num(h.PValue), num(h.PAdj), num(h.BaseMean))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d rows\n", len(hits))
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', 6, 64) }
