package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"deload/internal/config"
	"deload/internal/datasource/file"
	"deload/internal/dedup"
	"deload/internal/parser/tsv"
	"deload/internal/record"
	"deload/internal/schema"
	"deload/internal/skiplog"
	"deload/internal/storage"
)

// LoadDESet streams every DE table in set.Dir into de_results. The file name
// without extension is the cell type.
//
// Each file's header is skipped and columns are read by position according to
// the set's layout. Short rows and rows with a malformed numeric column are
// skipped, as are repeats of (analysis_type, cell_type, id).
//
// A missing directory returns an error wrapping file.ErrNotExist before
// anything is written.
func LoadDESet(ctx context.Context, tx storage.Tx, set config.DESet, opts Options) (Stats, error) {
	u := newUnit(set.AnalysisType, schema.DETable, opts)

	layout := record.Layout(set.Layout)
	if layout == "" {
		layout = record.InferLayout(set.AnalysisType)
	}
	if !layout.Valid() {
		return u.finish(), fmt.Errorf("%s: unknown layout %q", set.AnalysisType, set.Layout)
	}

	tables, err := file.ListTables(set.Dir)
	if err != nil {
		return u.finish(), fmt.Errorf("%s: %w", set.AnalysisType, err)
	}

	shape := opts.Shape
	if shape == "" {
		shape = record.Narrow
	}
	columns := schema.DE(shape).ColumnNames()
	seen := dedup.New(0)

	produce := func(ctx context.Context, emit emitFn) error {
		for _, tbl := range tables {
			if opts.Only != nil && !opts.Only[tbl.Group] {
				if opts.Verbose {
					log.Printf("importer: %s | %s not in allow list, skipping", set.AnalysisType, tbl.Group)
				}
				continue
			}
			u.stats.Files++
			if err := loadDEFile(ctx, u, tbl, set.AnalysisType, layout, shape, seen, emit); err != nil {
				return err
			}
		}
		return nil
	}

	err = stream(ctx, tx, u, columns, produce)
	st := u.finish()
	recordRows(st)
	if err != nil {
		return st, fmt.Errorf("%s: %w", set.AnalysisType, err)
	}
	log.Printf("importer: %s loaded files=%d inserted=%d read=%d skipped=%d",
		set.AnalysisType, st.Files, st.Inserted, st.Read, st.SkippedTotal())
	return st, nil
}

func loadDEFile(
	ctx context.Context,
	u *unit,
	tbl file.Table,
	analysisType string,
	layout record.Layout,
	shape record.Shape,
	seen *dedup.Set,
	emit emitFn,
) error {
	log.Printf("importer: streaming %s | %s", analysisType, tbl.Group)

	rc, err := file.NewLocal(tbl.Path).Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	r, err := tsv.NewReader(rc, u.opts.Parser)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", tbl.Path, err)
	}

	for {
		ln, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", tbl.Path, err)
		}
		u.stats.Read++

		rec, err := record.ParseDE(layout, analysisType, tbl.Group, ln.Fields)
		if err != nil {
			reason := skiplog.ReasonMalformed
			if errors.Is(err, record.ErrShortRow) {
				reason = skiplog.ReasonShortRow
			}
			key := ""
			if len(ln.Fields) > 0 {
				key = ln.Fields[0]
			}
			u.skip(reason, tbl.Path, ln.Number, key, ln.Raw)
			continue
		}
		if seen.Seen(analysisType, tbl.Group, rec.ID) {
			u.skip(skiplog.ReasonDuplicate, tbl.Path, ln.Number, rec.ID, ln.Raw)
			continue
		}
		if err := emit(rec.Row(shape)); err != nil {
			return err
		}
	}
}
