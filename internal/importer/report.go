package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"deload/internal/config"
	"deload/internal/schema"
	"deload/internal/storage"
)

// Report summarises a Run.
type Report struct {
	RunID string
	Mode  config.Mode
	Kind  string
	Units []Stats
	// Counts holds SELECT COUNT(*) per table after the load.
	Counts map[string]int64
	// SizeBytes is the on-disk size for file-backed databases, else 0.
	SizeBytes int64
	Warnings  []string
	Elapsed   time.Duration
}

// Totals sums the units per table.
func (r Report) Totals() map[string]Stats {
	out := map[string]Stats{}
	for _, u := range r.Units {
		t := out[u.Table]
		t.Unit, t.Table = u.Table, u.Table
		t.Files += u.Files
		t.Read += u.Read
		t.Inserted += u.Inserted
		if t.Skipped == nil {
			t.Skipped = map[string]int64{}
		}
		for k, v := range u.Skipped {
			t.Skipped[k] += v
		}
		t.Elapsed += u.Elapsed
		out[u.Table] = t
	}
	return out
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Printf("importer: WARNING %s", msg)
}

// verify compares COUNT(*) with the inserted totals. A mismatch (for example
// rows left over from an earlier run when truncate is off) is a warning.
func (r *Report) verify(ctx context.Context, repo storage.Repository) error {
	totals := r.Totals()
	for _, table := range []string{schema.AnnoTable, schema.DETable} {
		n, err := repo.Count(ctx, table)
		if err != nil {
			return fmt.Errorf("verify %s: %w", table, err)
		}
		r.Counts[table] = n
		if want := totals[table].Inserted; n != want {
			r.warn("%s has %d rows, inserted %d this run", table, n, want)
		}
	}
	return nil
}

// Print writes a human-readable summary.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "run %s mode=%s kind=%s elapsed=%s\n", r.RunID, r.Mode, r.Kind, r.Elapsed.Truncate(time.Millisecond))
	for _, u := range r.Units {
		fmt.Fprintf(w, "  %-12s files=%-3d read=%-10s inserted=%-10s batches=%-5d skipped=%s%s\n",
			u.Unit, u.Files, humanize.Comma(u.Read), humanize.Comma(u.Inserted), u.Batches,
			humanize.Comma(u.SkippedTotal()), reasons(u))
	}
	for _, table := range []string{schema.AnnoTable, schema.DETable} {
		if n, ok := r.Counts[table]; ok {
			fmt.Fprintf(w, "  %s rows=%s\n", table, humanize.Comma(n))
		}
	}
	if r.SizeBytes > 0 {
		fmt.Fprintf(w, "  database size %s\n", humanize.Bytes(uint64(r.SizeBytes)))
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", msg)
	}
}

func reasons(s Stats) string {
	if len(s.Skipped) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Skipped))
	for _, r := range s.Reasons() {
		parts = append(parts, fmt.Sprintf("%s=%d", r, s.Skipped[r]))
	}
	return " (" + strings.Join(parts, " ") + ")"
}
