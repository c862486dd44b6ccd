package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"deload/internal/config"
	"deload/internal/datasource"
	"deload/internal/dedup"
	"deload/internal/metrics"
	"deload/internal/parser/tsv"
	"deload/internal/record"
	"deload/internal/schema"
	"deload/internal/skiplog"
	"deload/internal/storage"
)

// UnitAnnotation names the annotation unit in logs, metrics and reports.
const UnitAnnotation = "annotation"

// LoadAnnotation streams the annotation file into the anno table.
//
// The ID and symbol columns are located by header name; a missing column is
// fatal. Lines too short to hold both columns, lines with an empty ID and
// repeated IDs (keep-first) are skipped.
func LoadAnnotation(ctx context.Context, tx storage.Tx, cfg config.Annotation, opts Options) (Stats, error) {
	u := newUnit(UnitAnnotation, schema.AnnoTable, opts)
	u.stats.Files = 1

	src := datasource.For(cfg.Path, nil)
	rc, err := src.Open(ctx)
	if err != nil {
		return u.finish(), fmt.Errorf("annotation: %w", err)
	}
	defer rc.Close()

	r, err := tsv.NewReader(rc, opts.Parser)
	if errors.Is(err, io.EOF) {
		log.Printf("importer: annotation %s is empty", src.Name())
		return u.finish(), nil
	}
	if err != nil {
		return u.finish(), fmt.Errorf("annotation %s: %w", src.Name(), err)
	}
	ix, err := r.Require(cfg.IDColumn, cfg.SymbolColumn)
	if err != nil {
		return u.finish(), fmt.Errorf("annotation %s: %w", src.Name(), err)
	}
	idIx, symIx := ix[0], ix[1]
	need := max(idIx, symIx) + 1

	log.Printf("importer: reading annotation %s (id=%s[%d] symbol=%s[%d])",
		src.Name(), cfg.IDColumn, idIx, cfg.SymbolColumn, symIx)

	seen := dedup.New(64 << 10)
	produce := func(ctx context.Context, emit emitFn) error {
		for {
			ln, err := r.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("annotation %s: %w", src.Name(), err)
			}
			u.stats.Read++

			if len(ln.Fields) < need {
				u.skip(skiplog.ReasonShortRow, src.Name(), ln.Number, "", ln.Raw)
				continue
			}
			a := record.Annotation{ID: ln.Fields[idIx], Symbol: ln.Fields[symIx]}
			if a.ID == "" {
				u.skip(skiplog.ReasonEmptyID, src.Name(), ln.Number, "", ln.Raw)
				continue
			}
			if seen.Seen(a.ID) {
				u.skip(skiplog.ReasonDuplicate, src.Name(), ln.Number, a.ID, ln.Raw)
				continue
			}
			if err := emit(a.Row()); err != nil {
				return err
			}
		}
	}

	err = stream(ctx, tx, u, schema.Anno().ColumnNames(), produce)
	st := u.finish()
	recordRows(st)
	if err != nil {
		return st, fmt.Errorf("annotation: %w", err)
	}
	log.Printf("importer: loaded %d unique annotations (read=%d skipped=%d duplicates=%d)",
		st.Inserted, st.Read, st.SkippedTotal(), st.Duplicates())
	return st, nil
}

// recordRows publishes the unit's row counters.
func recordRows(st Stats) {
	metrics.RecordRow(st.Unit, "read", st.Read)
	metrics.RecordRow(st.Unit, "inserted", st.Inserted)
	for _, reason := range st.Reasons() {
		metrics.RecordRow(st.Unit, reason, st.Skipped[reason])
	}
}
