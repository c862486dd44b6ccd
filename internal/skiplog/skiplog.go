// Package skiplog records rows an importer dropped, with the reason, so a run
// can be audited after the fact.
//
// Each Add increments a per-reason counter and, when the log is file-backed,
// appends a CSV row: reason,file,line_number,key,raw_line.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// Reasons written by the importers.
const (
	ReasonShortRow  = "short_row"
	ReasonEmptyID   = "empty_id"
	ReasonDuplicate = "duplicate"
	ReasonMalformed = "malformed"
)

var header = []string{"reason", "file", "line_number", "key", "raw_line"}

// Log is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	reasons map[string]int64
	w       *csv.Writer
	path    string
}

// New creates the CSV at path (and its parent directories) and writes the
// header. An empty path returns a counting-only Log. The returned func flushes
// and closes the file; it is safe to call more than once.
func New(path string) (*Log, func() error, error) {
	l := &Log{reasons: make(map[string]int64), path: path}
	if path == "" {
		return l, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	l.w = csv.NewWriter(f)
	if err := l.w.Write(header); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("write header %s: %w", path, err)
	}

	var once sync.Once
	var closeErr error
	return l, func() error {
		once.Do(func() {
			l.mu.Lock()
			l.w.Flush()
			closeErr = l.w.Error()
			l.mu.Unlock()
			if err := f.Close(); closeErr == nil {
				closeErr = err
			}
		})
		return closeErr
	}, nil
}

// Path returns the CSV path, or "" for a counting-only log.
func (l *Log) Path() string { return l.path }

// Add records one skipped row.
func (l *Log) Add(reason, file string, line int, key, raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[reason]++
	if l.w != nil {
		_ = l.w.Write([]string{reason, file, strconv.Itoa(line), key, raw})
	}
}

// Count returns the number of rows skipped for reason.
func (l *Log) Count(reason string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reasons[reason]
}

// Total returns the number of rows skipped for any reason.
func (l *Log) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, c := range l.reasons {
		n += c
	}
	return n
}

// Counts returns a copy of the per-reason counters.
func (l *Log) Counts() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.reasons))
	for k, v := range l.reasons {
		out[k] = v
	}
	return out
}

// Reasons returns the reasons seen so far in sorted order.
func (l *Log) Reasons() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.reasons))
	for k := range l.reasons {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
