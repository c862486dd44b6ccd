// Package tsv streams tab-separated text with a header row.
//
// Bioinformatics tables are plain TSV: no quoting, no embedded newlines, one
// record per line. Quote-aware CSV readers misbehave on them (a gene symbol
// containing a double quote swallows the rest of the file), so lines are split
// on the delimiter verbatim.
//
// Input is decoded before splitting: a UTF-8 byte-order mark is dropped and
// UTF-16 files exported by spreadsheet tools are transcoded to UTF-8.
package tsv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is returned by Require when a header name is absent.
var ErrMissingColumn = errors.New("missing column")

const (
	// DelimiterAuto asks the reader to sniff the delimiter from the first block.
	DelimiterAuto = "auto"

	sniffBytes  = 64 << 10
	maxLineSize = 16 << 20
)

// Options tunes a Reader. The zero value reads tab-separated UTF-8.
type Options struct {
	// Delimiter is the field separator. Empty means tab; DelimiterAuto sniffs.
	Delimiter string

	// Normalize applies Unicode NFC normalization to every field.
	Normalize bool
}

// Line is one data line. Number is the 1-based physical line number in the
// file (the header is line 1).
type Line struct {
	Number int
	Raw    string
	Fields []string
}

// Reader yields data lines after the header.
type Reader struct {
	sc        *bufio.Scanner
	delim     string
	normalize bool
	header    []string
	line      int
}

// NewReader decodes r, resolves the delimiter and consumes the header row.
// An input without any line returns io.EOF.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	br := bufio.NewReaderSize(
		transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())),
		sniffBytes,
	)

	delim := opts.Delimiter
	switch delim {
	case "":
		delim = "\t"
	case DelimiterAuto:
		delim = sniff(br)
	case `\t`:
		delim = "\t"
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	tr := &Reader{sc: sc, delim: delim, normalize: opts.Normalize}

	for sc.Scan() {
		tr.line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tr.header = tr.split(raw)
		return tr, nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tsv: read header: %w", err)
	}
	return nil, io.EOF
}

// sniff peeks at the first block and returns the most likely delimiter,
// falling back to tab.
func sniff(br *bufio.Reader) string {
	peek, _ := br.Peek(sniffBytes)
	if len(peek) == 0 {
		return "\t"
	}
	found := detector.New().DetectDelimiter(bytes.NewReader(peek), '"')
	if len(found) == 0 || found[0] == "" {
		return "\t"
	}
	return found[0]
}

// Delimiter returns the resolved field separator.
func (r *Reader) Delimiter() string { return r.delim }

// Header returns the trimmed header names in file order.
func (r *Reader) Header() []string { return r.header }

// Index returns the position of the named header column or -1. An exact match
// wins; otherwise the first case-insensitive match is used.
func (r *Reader) Index(name string) int {
	for i, h := range r.header {
		if h == name {
			return i
		}
	}
	for i, h := range r.header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Require resolves every name to a column index or fails with
// ErrMissingColumn naming the first absent column.
func (r *Reader) Require(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		ix := r.Index(n)
		if ix < 0 {
			return nil, fmt.Errorf("%w %q (header: %s)", ErrMissingColumn, n, strings.Join(r.header, ","))
		}
		out[i] = ix
	}
	return out, nil
}

// Next returns the next non-blank line, or io.EOF when the input is
// exhausted. The returned Fields slice is freshly allocated per call.
func (r *Reader) Next() (Line, error) {
	for r.sc.Scan() {
		r.line++
		raw := strings.TrimRight(r.sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		return Line{Number: r.line, Raw: raw, Fields: r.split(raw)}, nil
	}
	if err := r.sc.Err(); err != nil {
		return Line{}, fmt.Errorf("tsv: line %d: %w", r.line+1, err)
	}
	return Line{}, io.EOF
}

func (r *Reader) split(raw string) []string {
	fields := strings.Split(raw, r.delim)
	for i, f := range fields {
		if hasEdgeSpace(f) {
			f = strings.TrimSpace(f)
		}
		if r.normalize && !norm.NFC.IsNormalString(f) {
			f = norm.NFC.String(f)
		}
		fields[i] = f
	}
	return fields
}

// hasEdgeSpace avoids a TrimSpace allocation check on the common clean field.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
