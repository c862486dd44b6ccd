package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"deload/internal/config"
	"deload/internal/datasource/file"
	"deload/internal/metrics"
	"deload/internal/parser/tsv"
	"deload/internal/record"
	"deload/internal/schema"
	"deload/internal/skiplog"
	"deload/internal/storage"
)

// RunOptions carry per-invocation settings that do not live in the config
// file.
type RunOptions struct {
	RunID   string
	Verbose bool
	// Skips receives skipped lines. Nil counts skips only.
	Skips *skiplog.Log
	// Only restricts DE loads to these cell types. Nil loads all.
	Only map[string]bool
}

// Run executes one full import into repo for mode.
//
// Steps, each timed and reported to metrics:
//
//  1. schema:   CREATE TABLE/INDEX IF NOT EXISTS (target.create_tables)
//  2. truncate: empty anno and de_results (target.truncate), logged as a warning
//  3. load:     the annotation, then each DE set, each in its own transaction
//  4. analyze:  refresh planner statistics when the backend supports it
//  5. verify:   compare COUNT(*) per table with the inserted totals
//
// A DE set whose directory is missing is skipped with a warning. A failing
// unit stops the run; units committed before it stay committed and the
// partial Report is returned with the error.
func Run(ctx context.Context, repo storage.Repository, cfg config.Config, mode config.Mode, ro RunOptions) (Report, error) {
	start := time.Now()
	target := cfg.Target(mode)
	rep := Report{RunID: ro.RunID, Mode: mode, Kind: target.Kind, Counts: map[string]int64{}}

	shape := record.Shape(target.Shape)
	if shape == "" {
		shape = record.Narrow
	}
	opts := Options{
		Shape:     shape,
		BatchSize: cfg.Runtime.BatchSize,
		Buffer:    cfg.Runtime.ChannelBuffer,
		Parser:    tsv.Options{Delimiter: cfg.Parser.Delimiter, Normalize: cfg.Parser.Normalize},
		Skips:     ro.Skips,
		Only:      ro.Only,
		Verbose:   ro.Verbose,
	}
	tables := schema.Tables(shape)

	done := func(err error) (Report, error) {
		rep.Elapsed = time.Since(start)
		return rep, err
	}

	if target.CreateTables {
		err := step("all", "schema", func() error {
			return storage.EnsureSchema(ctx, target.Kind, repo, tables)
		})
		if err != nil {
			return done(fmt.Errorf("create schema: %w", err))
		}
	}

	if target.Truncate {
		rep.warn("truncating %s and %s on %s before load", schema.AnnoTable, schema.DETable, target.Kind)
		err := step("all", "truncate", func() error {
			return storage.Truncate(ctx, target.Kind, repo, schema.AnnoTable, schema.DETable)
		})
		if err != nil {
			return done(err)
		}
	}

	var annoStats Stats
	err := step(UnitAnnotation, "load", func() error {
		return repo.WithTx(ctx, func(tx storage.Tx) error {
			var err error
			annoStats, err = LoadAnnotation(ctx, tx, cfg.Annotation, opts)
			return err
		})
	})
	rep.Units = append(rep.Units, annoStats)
	if err != nil {
		return done(err)
	}

	for _, set := range cfg.SetsFor(mode) {
		var st Stats
		err := step(set.AnalysisType, "load", func() error {
			return repo.WithTx(ctx, func(tx storage.Tx) error {
				var err error
				st, err = LoadDESet(ctx, tx, set, opts)
				return err
			})
		})
		if errors.Is(err, file.ErrNotExist) {
			rep.warn("folder %s not found, skipping %s", set.Dir, set.AnalysisType)
			continue
		}
		rep.Units = append(rep.Units, st)
		if err != nil {
			return done(err)
		}
	}

	if o, ok := repo.(storage.Optimizer); ok {
		if err := step("all", "analyze", func() error { return o.Optimize(ctx) }); err != nil {
			return done(fmt.Errorf("analyze: %w", err))
		}
	}

	if err := step("all", "verify", func() error { return rep.verify(ctx, repo) }); err != nil {
		return done(err)
	}

	if s, ok := repo.(storage.Sizer); ok {
		if n, err := s.Size(); err == nil {
			rep.SizeBytes = n
			log.Printf("importer: done, database size is approx %s", humanize.Bytes(uint64(n)))
		}
	}
	return done(nil)
}

// step times fn and records it under unit/name.
func step(unit, name string, fn func() error) error {
	t0 := time.Now()
	err := fn()
	metrics.RecordStep(unit, name, err, time.Since(t0))
	return err
}
