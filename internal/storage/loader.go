package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"deload/internal/metrics"
)

// CopyFn is a backend bulk insert; Tx.CopyFrom satisfies it. It returns the
// number of rows the backend reports as inserted.
type CopyFn func(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

// Batch names the destination of one import unit.
type Batch struct {
	// Unit is the import unit ("annotation", "dsEER", ...) shown in progress
	// lines.
	Unit    string
	Table   string
	Columns []string
	// Size is the number of rows per CopyFn call.
	Size int
}

// Progress is the outcome of LoadBatches.
type Progress struct {
	Rows    int64
	Batches int64
	Elapsed time.Duration
}

// RowsPerSecond over the whole load.
func (p Progress) RowsPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Rows) / p.Elapsed.Seconds()
}

// LoadBatches drains in, calls copyFn once per b.Size rows and once more for
// the remainder. It returns what was committed to copyFn so far together with
// the first copy error or ctx.Err().
func LoadBatches(ctx context.Context, b Batch, in <-chan []any, copyFn CopyFn) (Progress, error) {
	if b.Size <= 0 {
		return Progress{}, fmt.Errorf("loader: %s: batch size must be > 0", b.Unit)
	}
	if copyFn == nil {
		return Progress{}, errors.New("loader: copyFn must not be nil")
	}

	l := &batchLoader{Batch: b, copyFn: copyFn, buf: make([][]any, 0, b.Size), start: time.Now()}
	for {
		select {
		case <-ctx.Done():
			return l.progress(), ctx.Err()
		case row, ok := <-in:
			if !ok {
				err := l.flush(ctx)
				p := l.progress()
				if err == nil {
					log.Printf("loader: %s -> %s done batches=%d rows=%d rps=%.0f",
						b.Unit, b.Table, p.Batches, p.Rows, p.RowsPerSecond())
				}
				return p, err
			}
			l.buf = append(l.buf, row)
			if len(l.buf) >= b.Size {
				if err := l.flush(ctx); err != nil {
					return l.progress(), err
				}
			}
		}
	}
}

type batchLoader struct {
	Batch
	copyFn  CopyFn
	buf     [][]any
	rows    int64
	batches int64
	start   time.Time
}

func (l *batchLoader) flush(ctx context.Context) error {
	if len(l.buf) == 0 {
		return nil
	}
	t0 := time.Now()
	n, err := l.copyFn(ctx, l.Table, l.Columns, l.buf)
	l.rows += n
	size := len(l.buf)
	l.buf = l.buf[:0]
	if err != nil {
		return fmt.Errorf("loader: %s batch %d (%d rows) into %s: %w", l.Unit, l.batches+1, size, l.Table, err)
	}
	l.batches++
	metrics.RecordBatches(l.Table, 1)

	d := time.Since(t0)
	rps := 0.0
	if d > 0 {
		rps = float64(n) / d.Seconds()
	}
	log.Printf("loader: %s batch #%d rows=%d total=%d rps=%.0f elapsed=%s",
		l.Unit, l.batches, n, l.rows, rps, time.Since(l.start).Truncate(time.Millisecond))
	return nil
}

func (l *batchLoader) progress() Progress {
	return Progress{Rows: l.rows, Batches: l.batches, Elapsed: time.Since(l.start)}
}
