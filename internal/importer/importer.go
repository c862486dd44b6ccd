// Package importer implements the two linear import flows: an annotation file
// and a number of DE sets are parsed, de-duplicated and bulk-loaded into a
// storage.Repository.
//
// Each unit (the annotation, or one DE set) runs as a small two-stage
// pipeline:
//
//	reader (tsv lines → typed rows, skip + dedup) → bounded channel → storage.LoadBatches
//
// Both stages share an errgroup context so a failing side cancels the other.
// Row-level problems never fail a unit; they are counted per reason and
// optionally written to a skip log.
package importer

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"deload/internal/parser/tsv"
	"deload/internal/record"
	"deload/internal/skiplog"
	"deload/internal/storage"
)

const (
	defaultBatchSize = 5000
	defaultBuffer    = 1024

	// verboseSkipLines caps the per-line skip messages printed per unit.
	verboseSkipLines = 5
)

// Options tune a single unit load.
type Options struct {
	// Shape selects the de_results projection rows are rendered in.
	Shape record.Shape
	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int
	// Buffer is the capacity of the reader → loader channel.
	Buffer int
	// Parser configures the TSV reader.
	Parser tsv.Options
	// Skips receives skipped lines. Nil counts skips in Stats only.
	Skips *skiplog.Log
	// Only restricts DE loads to these cell types. Nil loads all.
	Only map[string]bool
	// Verbose logs individual skipped lines (first few per unit).
	Verbose bool
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return defaultBatchSize
	}
	return o.BatchSize
}

func (o Options) buffer() int {
	if o.Buffer <= 0 {
		return defaultBuffer
	}
	return o.Buffer
}

// Stats summarises one unit.
type Stats struct {
	Unit  string
	Table string
	Files int
	// Read counts non-blank data lines.
	Read     int64
	Inserted int64
	Batches  int64
	// Skipped counts dropped lines by skiplog reason, duplicates included.
	Skipped map[string]int64
	Elapsed time.Duration
}

// Duplicates returns the number of lines dropped by keep-first dedup.
func (s Stats) Duplicates() int64 { return s.Skipped[skiplog.ReasonDuplicate] }

// SkippedTotal returns the number of dropped lines across all reasons.
func (s Stats) SkippedTotal() int64 {
	var n int64
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// Reasons returns the skip reasons present in s, sorted.
func (s Stats) Reasons() []string {
	out := make([]string, 0, len(s.Skipped))
	for r := range s.Skipped {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// unit carries the per-unit counters while a reader goroutine runs. It is
// owned by that goroutine until the errgroup returns.
type unit struct {
	stats   Stats
	opts    Options
	logged  int
	started time.Time
}

func newUnit(name, table string, opts Options) *unit {
	return &unit{
		stats:   Stats{Unit: name, Table: table, Skipped: map[string]int64{}},
		opts:    opts,
		started: time.Now(),
	}
}

func (u *unit) skip(reason, file string, line int, key, raw string) {
	u.stats.Skipped[reason]++
	if u.opts.Skips != nil {
		u.opts.Skips.Add(reason, file, line, key, raw)
	}
	if u.opts.Verbose && u.logged < verboseSkipLines {
		u.logged++
		log.Printf("importer: %s skip %s %s:%d key=%q", u.stats.Unit, reason, file, line, key)
	}
}

func (u *unit) finish() Stats {
	u.stats.Elapsed = time.Since(u.started)
	return u.stats
}

// emitFn hands one rendered row to the loader stage.
type emitFn func(row []any) error

// stream runs produce and storage.LoadBatches concurrently over a bounded
// channel and records the rows the backend reported as inserted on u. The
// channel is closed when produce returns.
func stream(
	ctx context.Context,
	tx storage.Tx,
	u *unit,
	columns []string,
	produce func(ctx context.Context, emit emitFn) error,
) error {
	g, ctx := errgroup.WithContext(ctx)
	rows := make(chan []any, u.opts.buffer())

	g.Go(func() error {
		defer close(rows)
		return produce(ctx, func(row []any) error {
			select {
			case rows <- row:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	b := storage.Batch{Unit: u.stats.Unit, Table: u.stats.Table, Columns: columns, Size: u.opts.batchSize()}
	var p storage.Progress
	g.Go(func() error {
		var err error
		p, err = storage.LoadBatches(ctx, b, rows, tx.CopyFrom)
		return err
	})

	err := g.Wait()
	u.stats.Inserted, u.stats.Batches = p.Rows, p.Batches
	return err
}
